package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fuellog/internal/db"
	"github.com/ukydev/fuellog/internal/family"
	"github.com/ukydev/fuellog/internal/models"
)

// FamilyHandler serves /api/families.
type FamilyHandler struct {
	families Families
	users    db.UserCollection
}

// NewFamilyHandler creates a family handler. users resolves member names
// and may be nil.
func NewFamilyHandler(families Families, users db.UserCollection) *FamilyHandler {
	return &FamilyHandler{families: families, users: users}
}

// familyView is a family with its members' display names.
type familyView struct {
	*family.Details
	Names map[string]string `json:"names"`
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.FamilyRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, err := h.families.Create(r.Context(), req.Name, claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	families, err := h.families.List(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, families)
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	details, err := h.families.Get(r.Context(), mux.Vars(r)["id"], claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, familyView{Details: details, Names: h.memberNames(r, details.Members)})
}

func (h *FamilyHandler) Invite(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	invite, err := h.families.Invite(r.Context(), mux.Vars(r)["id"], claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.JoinRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, err := h.families.Join(r.Context(), req.Token, claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.families.Leave(r.Context(), mux.Vars(r)["id"], claims.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FamilyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	if err := h.families.RemoveMember(r.Context(), vars["id"], claims.UserID, vars["userId"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.families.Delete(r.Context(), mux.Vars(r)["id"], claims.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// memberNames maps member user ids to display names. A failed lookup only
// loses the names.
func (h *FamilyHandler) memberNames(r *http.Request, members []models.FamilyMember) map[string]string {
	names := make(map[string]string, len(members))
	if h.users == nil || len(members) == 0 {
		return names
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := h.users.FindUsersByIDs(r.Context(), ids)
	if err != nil {
		log.WithError(err).Warn("Failed to load family member names")
		return names
	}
	for i := range users {
		names[users[i].ID.Hex()] = users[i].DisplayName()
	}
	return names
}
