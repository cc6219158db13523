package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ukydev/fuellog/internal/fills"
	"github.com/ukydev/fuellog/internal/models"
)

// FillHandler serves /api/fills and the dashboard statistics. Reads with a
// family_id query cover the vehicles shared with that family.
type FillHandler struct {
	garage Garage
}

// NewFillHandler creates a fill handler.
func NewFillHandler(garage Garage) *FillHandler {
	return &FillHandler{garage: garage}
}

// List returns the caller's fills filtered and sorted by the query.
func (h *FillHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	criteria, err := fills.ParseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	familyID := r.URL.Query().Get("family_id")
	history, err := h.garage.FillsOf(r.Context(), claims.UserID, familyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fills.Select(history, criteria))
}

// Stats returns the dashboard view: selected fills, the monthly series and
// summary statistics.
func (h *FillHandler) Stats(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	criteria, err := fills.ParseCriteria(q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	window := fills.WindowFor(q.Get("compact") == "true" || q.Get("compact") == "1")
	if v := q.Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "months must be a non-negative integer", http.StatusBadRequest)
			return
		}
		window = n
	}

	familyID := r.URL.Query().Get("family_id")
	history, err := h.garage.FillsOf(r.Context(), claims.UserID, familyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	vehicles, err := h.garage.VehiclesOf(r.Context(), claims.UserID, familyID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fills.Derive(fills.Snapshot{
		Fills:    history,
		Vehicles: vehicles,
		Criteria: criteria,
		Window:   window,
	}))
}

// Get returns one fill.
func (h *FillHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	f, err := h.garage.GetFill(r.Context(), claims.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Create records a fill.
func (h *FillHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.FillRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, err := h.garage.AddFill(r.Context(), claims.UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// Update replaces the provided fields of a fill.
func (h *FillHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var patch models.FillPatch
	if err := decodeBody(r, &patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, err := h.garage.UpdateFill(r.Context(), claims.UserID, mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Delete removes a fill.
func (h *FillHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.garage.DeleteFill(r.Context(), claims.UserID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
