package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fuellog/internal/db"
	"github.com/ukydev/fuellog/internal/family"
	"github.com/ukydev/fuellog/internal/fills"
	"github.com/ukydev/fuellog/internal/garage"
	"github.com/ukydev/fuellog/internal/middleware"
	"github.com/ukydev/fuellog/internal/models"
)

var validate = validator.New()

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// decodeBody reads a JSON body into dst and runs its validate tags. The
// returned error is safe to show to the client.
func decodeBody(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.New("Failed to read request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("Invalid JSON")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return errors.New("Validation failed: " + strings.Join(msgs, ", "))
		}
		return err
	}
	return nil
}

// currentUser returns the authenticated caller, writing a 401 when the
// request carries none.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

// errorStatus maps a service error to the HTTP status and message sent to
// the client.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, db.ErrInvalidID):
		return http.StatusBadRequest, "Invalid ID"
	case errors.Is(err, garage.ErrForbidden), errors.Is(err, family.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, garage.ErrInvalidFill), errors.Is(err, fills.ErrInvalidCriteria):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, family.ErrInvalidInvite):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, family.ErrInviteExpired):
		return http.StatusGone, err.Error()
	case errors.Is(err, family.ErrAlreadyMember), errors.Is(err, family.ErrSoleOwner):
		return http.StatusConflict, err.Error()
	case errors.Is(err, family.ErrCannotRemoveSelf):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError sends the status errorStatus picks for err and logs server
// side failures.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
	}
	http.Error(w, msg, status)
}
