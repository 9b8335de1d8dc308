// Package advice talks to the AI advice service. The service is an
// opaque collaborator: a car snapshot and its history go in, a full
// replacement list of suggestions comes out. On any failure callers
// keep whatever was cached before.
package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tuutuut/tuutuut-api/internal/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var ErrNoAPIKey = errors.New("GEMINI_API_KEY is not set")

// Client calls the Gemini generateContent endpoint over plain HTTP.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client from the GEMINI_API_KEY and GEMINI_MODEL
// environment variables.
func NewClient() *Client {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Client{
		apiKey:     os.Getenv("GEMINI_API_KEY"),
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type genRequest struct {
	Contents         []genContent `json:"contents"`
	GenerationConfig *genConfig   `json:"generationConfig,omitempty"`
}

type genContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []genPart `json:"parts"`
}

type genPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type genConfig struct {
	ResponseMimeType string      `json:"responseMimeType,omitempty"`
	ResponseSchema   interface{} `json:"responseSchema,omitempty"`
}

type genResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// suggestionSchema constrains the model output to the suggestion list
// shape, so the response can be unmarshaled directly.
var suggestionSchema = map[string]interface{}{
	"type": "ARRAY",
	"items": map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"task":               map[string]interface{}{"type": "STRING"},
			"urgency":            map[string]interface{}{"type": "STRING", "enum": []string{"high", "medium", "low"}},
			"reason":             map[string]interface{}{"type": "STRING"},
			"estimatedCostRange": map[string]interface{}{"type": "STRING"},
			"dueMileage":         map[string]interface{}{"type": "INTEGER"},
			"intervalKm":         map[string]interface{}{"type": "INTEGER"},
			"diyTip":             map[string]interface{}{"type": "STRING"},
		},
		"required": []string{"task", "urgency", "reason"},
	},
}

// GetMaintenanceAdvice asks the advice service for a fresh suggestion
// list for one car. The returned list replaces the cache wholesale.
func (c *Client) GetMaintenanceAdvice(ctx context.Context, car models.Car, history []models.MaintenanceRecord) ([]models.MaintenanceSuggestion, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	req := genRequest{
		Contents: []genContent{
			{Role: "user", Parts: []genPart{{Text: buildAdvicePrompt(car, history)}}},
		},
		GenerationConfig: &genConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   suggestionSchema,
		},
	}

	text, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var suggestions []models.MaintenanceSuggestion
	if err := json.Unmarshal([]byte(text), &suggestions); err != nil {
		return nil, fmt.Errorf("advice response is not valid JSON: %w", err)
	}
	return suggestions, nil
}

func (c *Client) generate(ctx context.Context, request genRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("advice service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("advice service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var genResp genResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode advice response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("advice service returned no candidates")
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// buildAdvicePrompt renders the car snapshot, the user's own interval
// overrides and the service history into the monitor prompt. The
// product speaks Dutch, so the prompt does too.
func buildAdvicePrompt(car models.Car, history []models.MaintenanceRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Ik heb een auto: %s %s uit %d met brandstoftype %s.\n", car.Make, car.Model, car.Year, car.FuelType)
	fmt.Fprintf(&b, "De huidige kilometerstand is %d km.\n\n", car.Mileage)

	if len(car.CustomIntervals) > 0 {
		b.WriteString("De gebruiker heeft de volgende EIGEN onderhoudsintervallen ingesteld. NEGEER de fabrieksopgave voor deze specifieke taken en gebruik de waarde van de gebruiker:\n")
		for _, ci := range car.CustomIntervals {
			fmt.Fprintf(&b, "- %s: elke %d km\n", ci.TaskName, ci.IntervalKm)
		}
		b.WriteString("\n")
	}

	b.WriteString("Dit is de onderhoudshistorie die bekend is:\n")
	if len(history) == 0 {
		b.WriteString("Geen historie bekend.\n")
	}
	for _, h := range history {
		fmt.Fprintf(&b, "- %s: %s (%s) bij %d km\n", h.Date, h.Title, h.Description, h.MileageAtService)
	}

	b.WriteString(`
Jij bent een expert automonteur. Analyseer de auto en de historie.

Je doel is om een 'monitor' te maken voor de gebruiker.
1. Kijk naar wat er gerepareerd is en bereken wanneer dit WEER moet gebeuren (bijv. olie elke 15k-30k km).
2. Kijk naar wat er nog niet gedaan is maar wel moet gebeuren gezien de leeftijd/km-stand.

Genereer een lijst met concrete onderhoudsadviezen of toekomstige checks.

BELANGRIJK: Voor minder kritieke zaken of zaken die je makkelijk zelf kunt checken (zoals Airco, Ruitenwissers, Bandenprofiel, Verlichting), voeg een 'diyTip' toe.

Geef antwoord in het Nederlands.
`)

	return b.String()
}
