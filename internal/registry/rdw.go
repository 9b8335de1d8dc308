// Package registry looks up vehicle data in the RDW open data set
// (the Dutch vehicle authority), so a car can be prefilled from just
// its license plate.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	defaultVehicleURL = "https://opendata.rdw.nl/resource/m9d7-ebf2.json"
	defaultFuelURL    = "https://opendata.rdw.nl/resource/8ys7-d773.json"
)

var (
	ErrInvalidPlate = errors.New("license plate too short")
	ErrNotFound     = errors.New("plate not registered")
)

// VehicleData is what the registry knows about a plate.
type VehicleData struct {
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	FuelType string `json:"fuelType"`
	APKDate  string `json:"apkDate"` // YYYY-MM-DD, empty when unknown
}

// Client queries the RDW open data endpoints.
type Client struct {
	vehicleURL string
	fuelURL    string
	httpClient *http.Client
}

// NewClient creates a registry client against the public RDW endpoints.
func NewClient() *Client {
	return &Client{
		vehicleURL: defaultVehicleURL,
		fuelURL:    defaultFuelURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type rdwVehicle struct {
	Merk                 string `json:"merk"`
	Handelsbenaming      string `json:"handelsbenaming"`
	DatumEersteToelating string `json:"datum_eerste_toelating"`
	VervaldatumAPK       string `json:"vervaldatum_apk"`
}

type rdwFuel struct {
	BrandstofOmschrijving string `json:"brandstof_omschrijving"`
}

// LookupPlate resolves a license plate to vehicle data. The plate may
// contain dashes and spaces. Returns ErrNotFound when the registry has
// no entry for it.
func (c *Client) LookupPlate(ctx context.Context, plate string) (*VehicleData, error) {
	clean := normalizePlate(plate)
	if len(clean) < 6 {
		return nil, ErrInvalidPlate
	}

	var vehicles []rdwVehicle
	if err := c.getJSON(ctx, c.vehicleURL, clean, &vehicles); err != nil {
		return nil, fmt.Errorf("registry lookup failed: %w", err)
	}
	if len(vehicles) == 0 {
		return nil, ErrNotFound
	}
	info := vehicles[0]

	// The fuel type lives in a separate data set. Failures here are
	// not fatal; "Benzine" is the fallback.
	fuelType := "Benzine"
	var fuels []rdwFuel
	if err := c.getJSON(ctx, c.fuelURL, clean, &fuels); err == nil {
		fuelType = deriveFuelType(fuels, fuelType)
	}

	year := time.Now().Year()
	if len(info.DatumEersteToelating) >= 4 {
		if y, err := strconv.Atoi(info.DatumEersteToelating[:4]); err == nil {
			year = y
		}
	}

	return &VehicleData{
		Make:     info.Merk,
		Model:    info.Handelsbenaming,
		Year:     year,
		FuelType: fuelType,
		APKDate:  formatAPKDate(info.VervaldatumAPK),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, plate string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?kenteken="+url.QueryEscape(plate), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func normalizePlate(plate string) string {
	var b strings.Builder
	for _, r := range plate {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func deriveFuelType(fuels []rdwFuel, fallback string) string {
	types := []string{}
	for _, f := range fuels {
		if f.BrandstofOmschrijving != "" {
			types = append(types, f.BrandstofOmschrijving)
		}
	}
	if len(types) == 0 {
		return fallback
	}

	electric, combustion := false, false
	for _, t := range types {
		switch t {
		case "Elektriciteit":
			electric = true
		case "Benzine", "Diesel":
			combustion = true
		}
	}
	if electric && combustion {
		return "Hybride"
	}

	first := strings.ToLower(types[0])
	return strings.ToUpper(first[:1]) + first[1:]
}

// formatAPKDate normalizes the RDW expiry, usually YYYYMMDD, to
// YYYY-MM-DD. Anything already dashed passes through unchanged.
func formatAPKDate(raw string) string {
	if len(raw) == 8 && !strings.Contains(raw, "-") {
		return raw[:4] + "-" + raw[4:6] + "-" + raw[6:8]
	}
	return raw
}
