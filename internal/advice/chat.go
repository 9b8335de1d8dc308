package advice

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tuutuut/tuutuut-api/internal/models"
)

// ChatMessage is one turn in the mechanic chat. Image, when set, is a
// base64 data URL as produced by the client.
type ChatMessage struct {
	Role  string `json:"role"` // "user" or "model"
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// ChatContext is the snapshot the chatbot gets to reason about: the
// user's cars and service history, and which car detail view is open.
type ChatContext struct {
	Cars        []models.Car
	ActiveCarID string
	Records     []models.MaintenanceRecord
}

var dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// imagePart converts a data URL into an inline-data part. Returns nil
// when the value is not a data URL; a broken image never fails a chat.
func imagePart(image string) *genPart {
	matches := dataURLPattern.FindStringSubmatch(image)
	if len(matches) != 3 {
		return nil
	}
	return &genPart{InlineData: &inlineData{MimeType: matches[1], Data: matches[2]}}
}

// Chat sends one user message plus history to the mechanic chatbot and
// returns its reply as plain text.
func (c *Client) Chat(ctx context.Context, message, image string, history []ChatMessage, chatCtx ChatContext) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	contents := []genContent{
		{Role: "user", Parts: []genPart{{Text: buildChatContext(chatCtx)}}},
	}

	for _, msg := range history {
		parts := []genPart{{Text: msg.Text}}
		if msg.Image != "" {
			if p := imagePart(msg.Image); p != nil {
				parts = append(parts, *p)
			}
		}
		contents = append(contents, genContent{Role: msg.Role, Parts: parts})
	}

	current := []genPart{{Text: message}}
	if image != "" {
		if p := imagePart(image); p != nil {
			current = append(current, *p)
		}
	}
	contents = append(contents, genContent{Role: "user", Parts: current})

	return c.generate(ctx, genRequest{Contents: contents})
}

// buildChatContext renders the system instruction with the user's
// cars, custom intervals and relevant logbook. Sent as the first user
// turn, the way the original client did.
func buildChatContext(chatCtx ChatContext) string {
	var b strings.Builder

	b.WriteString("Je bent Tuutuut Assistent, een behulpzame, deskundige AI automonteur. Je helpt de gebruiker met vragen over hun auto's en onderhoud.\n")

	if len(chatCtx.Cars) == 0 {
		b.WriteString("\nDe gebruiker heeft nog geen auto's toegevoegd.\n")
	} else {
		b.WriteString("\nDe gebruiker heeft de volgende auto's:\n")
		for _, car := range chatCtx.Cars {
			fmt.Fprintf(&b, "- %s %s (%d), %s, %dkm (Kenteken: %s)\n",
				car.Make, car.Model, car.Year, car.FuelType, car.Mileage, car.LicensePlate)
			if len(car.CustomIntervals) > 0 {
				parts := make([]string, 0, len(car.CustomIntervals))
				for _, ci := range car.CustomIntervals {
					parts = append(parts, fmt.Sprintf("%s elke %dkm", ci.TaskName, ci.IntervalKm))
				}
				fmt.Fprintf(&b, "  Let op: Gebruiker hanteert eigen intervallen: %s\n", strings.Join(parts, ", "))
			}
		}

		records := chatCtx.Records
		if chatCtx.ActiveCarID != "" {
			filtered := []models.MaintenanceRecord{}
			for _, r := range records {
				if r.CarID == chatCtx.ActiveCarID {
					filtered = append(filtered, r)
				}
			}
			records = filtered

			for _, car := range chatCtx.Cars {
				if car.ID == chatCtx.ActiveCarID {
					fmt.Fprintf(&b, "\nDe gebruiker kijkt NU naar de details van: %s %s.\n", car.Make, car.Model)
					break
				}
			}
		}

		if len(records) > 0 {
			b.WriteString("\nDit is het relevante onderhoudslogboek:\n")
			for _, r := range records {
				carName := ""
				if chatCtx.ActiveCarID == "" {
					for _, car := range chatCtx.Cars {
						if car.ID == r.CarID {
							carName = car.Model
							break
						}
					}
				}
				fmt.Fprintf(&b, "- %s %s: %s (%s) bij %dkm\n", r.Date, carName, r.Title, r.Description, r.MileageAtService)
			}
		}
	}

	b.WriteString("\nAntwoord kort, bondig en hulpvaardig. Als de gebruiker een foto stuurt (bijvoorbeeld van een dashboardlampje), analyseer deze dan en geef advies.")
	return b.String()
}
