package models

// Urgency levels for a maintenance suggestion.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// IsValidUrgency checks if an urgency value is one the advice service
// may produce.
func IsValidUrgency(urgency string) bool {
	switch urgency {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	default:
		return false
	}
}

// MaintenanceSuggestion is one AI-generated advice entry cached on a
// car. The whole list is replaced on every refresh, never merged.
// DueMileage and IntervalKm are optional; when either is missing or the
// interval is not positive, no interval progress can be computed.
type MaintenanceSuggestion struct {
	Task               string `bson:"task" json:"task"`
	Urgency            string `bson:"urgency" json:"urgency"`
	Reason             string `bson:"reason" json:"reason"`
	EstimatedCostRange string `bson:"estimated_cost_range,omitempty" json:"estimatedCostRange,omitempty"`
	DueMileage         *int   `bson:"due_mileage,omitempty" json:"dueMileage,omitempty"`
	IntervalKm         *int   `bson:"interval_km,omitempty" json:"intervalKm,omitempty"`
	DIYTip             string `bson:"diy_tip,omitempty" json:"diyTip,omitempty"`
}
