package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fuellog/internal/models"
)

// fuelProfile describes how a kind of car drinks and what its fuel costs.
type fuelProfile struct {
	Consumption float64 // L/100km
	Price       float64 // per liter
	Tank        float64 // liters
}

var profiles = map[string]fuelProfile{
	"petrol": {Consumption: 6.8, Price: 1.85, Tank: 50},
	"diesel": {Consumption: 5.4, Price: 1.72, Tank: 60},
	"lpg":    {Consumption: 8.9, Price: 0.78, Tank: 45},
}

var fleet = map[string][]struct{ Make, Model string }{
	"petrol": {{"Fiat", "Panda"}, {"Toyota", "Yaris"}, {"Volkswagen", "Golf"}},
	"diesel": {{"Skoda", "Octavia"}, {"Peugeot", "308"}, {"BMW", "320d"}},
	"lpg":    {{"Dacia", "Sandero"}, {"Opel", "Corsa"}},
}

// Client talks to the fuel log API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{BaseURL: baseURL, Token: token, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) post(path string, payload, out interface{}, want int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return fmt.Errorf("%s failed with status: %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login exchanges credentials for a token and keeps it on the client.
func (c *Client) Login(username, password string) error {
	var resp models.LoginResponse
	if err := c.post("/auth/login", models.LoginRequest{Username: username, Password: password}, &resp, http.StatusOK); err != nil {
		return err
	}
	c.Token = resp.Token
	return nil
}

// CreateVehicle registers a random car of the given fuel type.
func (c *Client) CreateVehicle(rng *rand.Rand, name, fuelType string, odometer float64) (string, error) {
	choices := fleet[fuelType]
	pick := choices[rng.Intn(len(choices))]
	consumption := profiles[fuelType].Consumption

	req := models.VehicleRequest{
		Name:              name,
		Make:              pick.Make,
		Model:             pick.Model,
		Year:              2012 + rng.Intn(12),
		FuelType:          fuelType,
		StatedConsumption: &consumption,
		Odometer:          odometer,
	}

	var created models.Vehicle
	if err := c.post("/vehicles", req, &created, http.StatusCreated); err != nil {
		return "", fmt.Errorf("failed to create vehicle: %w", err)
	}
	if created.ID.IsZero() {
		return "", fmt.Errorf("invalid vehicle ID in response")
	}

	log.WithFields(log.Fields{
		"vehicle_id": created.ID.Hex(),
		"fuel_type":  fuelType,
		"make":       pick.Make,
		"model":      pick.Model,
	}).Info("Created vehicle")
	return created.ID.Hex(), nil
}

// SendFill records a fill.
func (c *Client) SendFill(fill models.FillRequest) error {
	if err := c.post("/fills", fill, nil, http.StatusCreated); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"vehicle_id": fill.VehicleID,
		"date":       fill.Date,
		"liters":     fill.Liters,
	}).Info("Sent fill")
	return nil
}

// VehicleState tracks one simulated car between fills.
type VehicleState struct {
	VehicleID string
	FuelType  string
	Odometer  float64
	Date      time.Time
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// nextFill drives the car for a few days and fills the tank back up.
// Roughly one fill in ten skips the odometer reading and one in five skips
// the receipt total, the way real logs are incomplete.
func nextFill(rng *rand.Rand, s *VehicleState) models.FillRequest {
	p := profiles[s.FuelType]

	s.Date = s.Date.AddDate(0, 0, 3+rng.Intn(12))
	distance := 200 + rng.Float64()*450
	s.Odometer = round(s.Odometer+distance, 0)

	drift := 0.85 + rng.Float64()*0.3
	liters := math.Min(round(distance*p.Consumption/100*drift, 2), p.Tank)
	if liters < 1 {
		liters = 1
	}
	price := round(p.Price*(0.93+rng.Float64()*0.14), 3)

	fill := models.FillRequest{
		VehicleID: s.VehicleID,
		Date:      s.Date.Format(models.DateLayout),
		Liters:    liters,
	}
	if rng.Intn(10) != 0 {
		odo := s.Odometer
		fill.Odometer = &odo
	}
	if rng.Intn(5) != 0 {
		amount := round(liters*price, 2)
		fill.Amount = &amount
	} else {
		fill.PricePerLiter = &price
	}
	return fill
}

func simulateVehicle(ctx context.Context, c *Client, rng *rand.Rand, s *VehicleState, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := c.SendFill(nextFill(rng, s)); err != nil {
				log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to send fill")
			}
		}
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			return n
		}
	}
	return fallback
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	client := NewClient(apiURL, os.Getenv("SIM_AUTH_TOKEN"))
	if user := os.Getenv("SIM_USERNAME"); user != "" {
		if err := client.Login(user, os.Getenv("SIM_PASSWORD")); err != nil {
			log.WithError(err).Fatal("Login failed")
		}
	}

	garageSize := envInt("GARAGE_SIZE", 3)
	interval := time.Duration(envInt("SIM_TICK_SECONDS", 5)) * time.Second

	log.WithFields(log.Fields{
		"garage_size": garageSize,
		"api_url":     apiURL,
		"interval":    interval,
	}).Info("Starting fill simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed := time.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed))
	fuelTypes := []string{"petrol", "diesel", "lpg"}
	start := time.Now().UTC().AddDate(-1, 0, 0).Truncate(24 * time.Hour)

	states := make([]*VehicleState, 0, garageSize)
	for i := 0; i < garageSize; i++ {
		fuelType := fuelTypes[rng.Intn(len(fuelTypes))]
		odometer := round(5000+rng.Float64()*120000, 0)
		vehicleID, err := client.CreateVehicle(rng, fmt.Sprintf("Car %d", i+1), fuelType, odometer)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		states = append(states, &VehicleState{
			VehicleID: vehicleID,
			FuelType:  fuelType,
			Odometer:  odometer,
			Date:      start,
		})
	}

	log.WithField("created_vehicles", len(states)).Info("Vehicle creation completed")
	if len(states) == 0 {
		log.Error("No vehicles created. Ensure the credentials are valid and the API is reachable. Exiting.")
		return
	}

	for i, s := range states {
		// each goroutine gets its own source; *rand.Rand is not safe for concurrent use
		go simulateVehicle(ctx, client, rand.New(rand.NewSource(seed+int64(i)+1)), s, interval)
	}

	log.Info("Fill simulation started")
	<-ctx.Done()
	log.Info("Fill simulation stopped")
}
