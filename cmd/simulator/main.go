// Simulator drives a garage against the API: it creates a few cars and
// then keeps their odometers moving, over HTTP or over MQTT when a
// broker is configured. Useful for exercising the due engine and the
// alert feed with realistic data.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

type simCar struct {
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Mileage  int    `json:"mileage"`
	FuelType string `json:"fuelType"`
}

type carState struct {
	CarID   string
	OwnerID string
	Mileage int
	// KmPerTick is the average distance covered per tick.
	KmPerTick int
}

var fleet = []simCar{
	{Make: "Volkswagen", Model: "Golf", FuelType: "Benzine"},
	{Make: "Opel", Model: "Astra", FuelType: "Benzine"},
	{Make: "Toyota", Model: "Yaris", FuelType: "Hybride"},
	{Make: "Fiat", Model: "Panda", FuelType: "Benzine"},
	{Make: "Volvo", Model: "V60", FuelType: "Diesel"},
	{Make: "Renault", Model: "Zoe", FuelType: "Elektrisch"},
}

var authToken string

func authorizedRequest(method, url string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func randomCar() simCar {
	car := fleet[rand.Intn(len(fleet))]
	car.Year = 2008 + rand.Intn(17)
	car.Mileage = 20000 + rand.Intn(180000)
	return car
}

func createCar(apiURL string) (*carState, error) {
	car := randomCar()
	data, err := json.Marshal(car)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal car: %w", err)
	}

	resp, err := authorizedRequest(http.MethodPost, apiURL+"/cars", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("car creation failed with status: %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	log.WithFields(log.Fields{
		"car_id":  created.ID,
		"make":    car.Make,
		"model":   car.Model,
		"mileage": car.Mileage,
	}).Info("Created car")

	return &carState{CarID: created.ID, Mileage: car.Mileage, KmPerTick: 20 + rand.Intn(60)}, nil
}

// nextMileage advances the odometer by a jittered tick distance. The
// result never goes down.
func nextMileage(current, kmPerTick int) int {
	step := kmPerTick + rand.Intn(kmPerTick+1) - kmPerTick/2
	if step < 0 {
		step = 0
	}
	return current + step
}

func sendMileageHTTP(apiURL string, s *carState) {
	data, err := json.Marshal(map[string]int{"mileage": s.Mileage})
	if err != nil {
		log.WithError(err).Error("Failed to marshal mileage")
		return
	}
	resp, err := authorizedRequest(http.MethodPut, apiURL+"/cars/"+s.CarID+"/mileage", bytes.NewBuffer(data))
	if err != nil {
		log.WithError(err).Error("Failed to send mileage")
		return
	}
	defer resp.Body.Close()
	log.WithFields(log.Fields{"car_id": s.CarID, "mileage": s.Mileage, "status": resp.Status}).Info("Sent mileage")
}

func odometerTopic(ownerID, carID string) string {
	return fmt.Sprintf("tuutuut/%s/%s/odometer", ownerID, carID)
}

func publishMileage(client mqtt.Client, s *carState) {
	payload, err := json.Marshal(map[string]int{"mileage": s.Mileage})
	if err != nil {
		log.WithError(err).Error("Failed to marshal reading")
		return
	}
	token := client.Publish(odometerTopic(s.OwnerID, s.CarID), 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		log.WithError(err).Error("Failed to publish reading")
		return
	}
	log.WithFields(log.Fields{"car_id": s.CarID, "mileage": s.Mileage}).Info("Published reading")
}

func simulateCar(apiURL string, mqttClient mqtt.Client, s *carState, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for range tick.C {
		s.Mileage = nextMileage(s.Mileage, s.KmPerTick)
		if mqttClient != nil {
			publishMileage(mqttClient, s)
		} else {
			sendMileageHTTP(apiURL, s)
		}
	}
}

func main() {
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	garageSize := 3
	if val := os.Getenv("GARAGE_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			garageSize = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	interval := 5 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	ownerID := os.Getenv("SIM_OWNER_ID")
	if ownerID == "" {
		ownerID = "guest"
	}

	var mqttClient mqtt.Client
	if broker := os.Getenv("SIM_MQTT_BROKER"); broker != "" {
		opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID("tuutuut-sim")
		mqttClient = mqtt.NewClient(opts)
		token := mqttClient.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			log.WithError(err).Fatal("Failed to connect to MQTT broker")
		}
		log.WithField("broker", broker).Info("Publishing readings over MQTT")
	}

	log.WithFields(log.Fields{
		"garage_size": garageSize,
		"api_url":     apiURL,
		"interval":    interval,
	}).Info("Starting garage simulation")

	states := make([]*carState, 0, garageSize)
	for i := 0; i < garageSize; i++ {
		state, err := createCar(apiURL)
		if err != nil {
			log.WithError(err).Error("Failed to create car")
			continue
		}
		state.OwnerID = ownerID
		states = append(states, state)
	}

	log.WithField("created_cars", len(states)).Info("Garage creation completed")
	if len(states) == 0 {
		log.Error("No cars created. Ensure SIM_AUTH_TOKEN is valid and API is reachable. Exiting.")
		return
	}

	for _, s := range states {
		go simulateCar(apiURL, mqttClient, s, interval)
	}

	log.Info("Odometer simulation started")
	select {} // Block forever
}
