// Package telemetry ingests odometer readings over MQTT. Connected
// dongles or phone apps publish the current mileage; the ingestor
// advances the matching car so due progress stays current without a
// manual update.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tuutuut/tuutuut-api/internal/db"
)

// Topic layout: tuutuut/{ownerID}/{carID}/odometer
const odometerTopic = "tuutuut/+/+/odometer"

const applyTimeout = 10 * time.Second

var errBadTopic = errors.New("malformed odometer topic")

type odometerReading struct {
	Mileage int `json:"mileage"`
}

// Ingestor subscribes to odometer readings and writes them through the
// car store.
type Ingestor struct {
	store  db.CarStore
	client mqtt.Client
}

// NewIngestor creates an ingestor over the given car store.
func NewIngestor(store db.CarStore) *Ingestor {
	return &Ingestor{store: store}
}

// Start connects to the broker and subscribes to the odometer topic.
func (i *Ingestor) Start(brokerURL string) error {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("tuutuut-api-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(odometerTopic, 1, i.handleMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			log.WithError(err).Error("Failed to subscribe to odometer topic")
			return
		}
		log.WithField("topic", odometerTopic).Info("Subscribed to odometer readings")
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	}

	i.client = mqtt.NewClient(opts)
	token := i.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return nil
}

// Stop disconnects from the broker.
func (i *Ingestor) Stop() {
	if i.client != nil {
		i.client.Disconnect(250)
	}
}

func (i *Ingestor) handleMessage(client mqtt.Client, msg mqtt.Message) {
	ownerID, carID, err := parseOdometerTopic(msg.Topic())
	if err != nil {
		log.WithField("topic", msg.Topic()).Warn("Dropping reading with malformed topic")
		return
	}

	var reading odometerReading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("Dropping unparseable odometer reading")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	if err := i.ApplyReading(ctx, ownerID, carID, reading.Mileage); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"owner_id": ownerID,
			"car_id":   carID,
		}).Warn("Failed to apply odometer reading")
	}
}

// ApplyReading advances a car's odometer to the given value. Readings
// that would move the odometer backwards are ignored: sensors replay
// and reorder, and a user correction goes through the API instead.
func (i *Ingestor) ApplyReading(ctx context.Context, ownerID, carID string, mileage int) error {
	if mileage < 0 {
		return fmt.Errorf("negative mileage %d", mileage)
	}

	car, err := i.store.FindCarByID(ctx, ownerID, carID)
	if err != nil {
		return err
	}
	if mileage <= car.Mileage {
		return nil
	}

	car.Mileage = mileage
	return i.store.UpdateCar(ctx, ownerID, *car)
}

func parseOdometerTopic(topic string) (ownerID, carID string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "tuutuut" || parts[3] != "odometer" || parts[1] == "" || parts[2] == "" {
		return "", "", errBadTopic
	}
	return parts[1], parts[2], nil
}
