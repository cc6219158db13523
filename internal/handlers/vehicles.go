package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ukydev/fuellog/internal/family"
	"github.com/ukydev/fuellog/internal/models"
)

// Garage is the vehicle and fill service the handlers call into.
type Garage interface {
	ListVehicles(ctx context.Context, userID string) ([]models.Vehicle, error)
	VehiclesOf(ctx context.Context, userID, familyID string) ([]models.Vehicle, error)
	GetVehicle(ctx context.Context, userID, id string) (*models.Vehicle, error)
	CreateVehicle(ctx context.Context, userID string, req models.VehicleRequest) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, userID, id string, req models.VehicleRequest) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, userID, id string) (int64, error)

	FillsOf(ctx context.Context, userID, familyID string) ([]models.Fill, error)
	GetFill(ctx context.Context, userID, id string) (*models.Fill, error)
	AddFill(ctx context.Context, userID string, req models.FillRequest) (*models.Fill, error)
	UpdateFill(ctx context.Context, userID, id string, patch models.FillPatch) (*models.Fill, error)
	DeleteFill(ctx context.Context, userID, id string) error
}

// Families is the family membership service the handlers call into.
type Families interface {
	Create(ctx context.Context, name, userID string) (*models.Family, error)
	List(ctx context.Context, userID string) ([]models.Family, error)
	Get(ctx context.Context, familyID, userID string) (*family.Details, error)
	Invite(ctx context.Context, familyID, userID string) (*models.Invite, error)
	Join(ctx context.Context, token, userID string) (*models.Family, error)
	Leave(ctx context.Context, familyID, userID string) error
	RemoveMember(ctx context.Context, familyID, ownerID, memberID string) error
	Delete(ctx context.Context, familyID, userID string) error
}

// VehicleHandler serves /api/vehicles.
type VehicleHandler struct {
	garage Garage
}

// NewVehicleHandler creates a vehicle handler.
func NewVehicleHandler(garage Garage) *VehicleHandler {
	return &VehicleHandler{garage: garage}
}

// List returns the caller's vehicles and those shared with their families.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	vehicles, err := h.garage.ListVehicles(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// Get returns one vehicle.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	v, err := h.garage.GetVehicle(r.Context(), claims.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Create adds a vehicle.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.VehicleRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v, err := h.garage.CreateVehicle(r.Context(), claims.UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// Update edits a vehicle.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.VehicleRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v, err := h.garage.UpdateVehicle(r.Context(), claims.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Delete removes a vehicle and its fills.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	removed, err := h.garage.DeleteVehicle(r.Context(), claims.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Vehicle deleted",
		"fills_deleted": removed,
	})
}
