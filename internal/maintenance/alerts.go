package maintenance

import (
	"time"

	"github.com/tuutuut/tuutuut-api/internal/models"
)

// Alert is one notification-feed entry. CarID plus Task is the
// addressing key the client uses to jump back to the originating
// suggestion; task names are treated as unique within one car's advice
// list.
type Alert struct {
	CarID       string `json:"carId"`
	CarName     string `json:"carName"`
	Task        string `json:"task"`
	Reason      string `json:"reason"`
	Urgency     string `json:"urgency"`
	Overdue     bool   `json:"overdue"`
	OverdueByKm int    `json:"overdueByKm,omitempty"`
}

// AggregateAlerts collects the urgent suggestions across all cars into
// a flat feed, in per-car, per-suggestion encounter order. Inspection
// expiry is deliberately not listed here; it only contributes to
// AlertCount.
func AggregateAlerts(cars []models.Car) []Alert {
	alerts := []Alert{}
	for i := range cars {
		car := &cars[i]
		for _, s := range car.LastAdvice {
			if !IsUrgent(car.Mileage, s) {
				continue
			}
			alert := Alert{
				CarID:   car.ID,
				CarName: car.DisplayName(),
				Task:    s.Task,
				Reason:  s.Reason,
				Urgency: s.Urgency,
			}
			if s.DueMileage != nil && car.Mileage > *s.DueMileage {
				alert.Overdue = true
				alert.OverdueByKm = car.Mileage - *s.DueMileage
			}
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// AlertCount is the badge total: for each car, its urgent suggestion
// count plus at most one inspection-expiry contribution. Each car is
// counted independently; there is no cross-car interaction.
func AlertCount(cars []models.Car, today time.Time) int {
	total := 0
	for i := range cars {
		car := &cars[i]
		for _, s := range car.LastAdvice {
			if IsUrgent(car.Mileage, s) {
				total++
			}
		}
		if InspectionAlert(car.APKDate, today) {
			total++
		}
	}
	return total
}
