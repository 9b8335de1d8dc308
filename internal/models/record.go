package models

import "time"

// MaintenanceRecord is one logged service event for a car.
type MaintenanceRecord struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	OwnerID          string    `bson:"owner_id" json:"-"`
	CarID            string    `bson:"car_id" json:"carId"`
	Date             string    `bson:"date" json:"date"` // YYYY-MM-DD
	Title            string    `bson:"title" json:"title"`
	Description      string    `bson:"description" json:"description"`
	Cost             float64   `bson:"cost" json:"cost"` // in EUR, >= 0
	MileageAtService int       `bson:"mileage_at_service" json:"mileageAtService"`
	ReceiptURL       string    `bson:"receipt_url,omitempty" json:"receiptUrl,omitempty"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}
