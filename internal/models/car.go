package models

import (
	"time"
)

// Car represents a vehicle tracked by a single owner. IDs are
// client-style UUID strings so that the same document shape works in
// both the Mongo and the local guest store.
type Car struct {
	ID              string                      `bson:"_id,omitempty" json:"id"`
	OwnerID         string                      `bson:"owner_id" json:"-"`
	Make            string                      `bson:"make" json:"make"`
	Model           string                      `bson:"model" json:"model"`
	Year            int                         `bson:"year" json:"year"`
	Mileage         int                         `bson:"mileage" json:"mileage"` // current odometer, in kilometers
	FuelType        string                      `bson:"fuel_type" json:"fuelType"`
	LicensePlate    string                      `bson:"license_plate" json:"licensePlate"`
	VIN             string                      `bson:"vin,omitempty" json:"vin,omitempty"`
	APKDate         string                      `bson:"apk_date,omitempty" json:"apkDate,omitempty"` // inspection expiry, YYYY-MM-DD
	PhotoURL        string                      `bson:"photo_url,omitempty" json:"photoUrl,omitempty"`
	LastAdvice      []MaintenanceSuggestion     `bson:"last_advice,omitempty" json:"lastAdvice,omitempty"`
	LastAdviceDate  *time.Time                  `bson:"last_advice_date,omitempty" json:"lastAdviceDate,omitempty"`
	CustomIntervals []CustomMaintenanceInterval `bson:"custom_intervals,omitempty" json:"customMaintenanceIntervals,omitempty"`
	CreatedAt       time.Time                   `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time                   `bson:"updated_at" json:"updated_at"`
}

// DisplayName is the label used in notifications and chat context.
func (c *Car) DisplayName() string {
	return c.Make + " " + c.Model
}

// CustomMaintenanceInterval is a per-car user override for how often a
// task recurs. It is advisory input to the advice service; the due
// engine only ever sees whatever interval ends up on a suggestion.
type CustomMaintenanceInterval struct {
	TaskName   string `bson:"task_name" json:"taskName"`
	IntervalKm int    `bson:"interval_km" json:"intervalKm"`
}
