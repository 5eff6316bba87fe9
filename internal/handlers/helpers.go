package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/auth"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/httpx"
	"github.com/ukydev/fleet-manager/internal/models"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	httpx.JSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	httpx.Error(w, status, msg, code, nil)
}

// writeInternal logs err and replies with a generic 500.
func writeInternal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.WithError(err).WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error(msg)
	httpx.Error(w, http.StatusInternalServerError, auth.Localize("", language(r)), "internal", nil)
}

func writeViolations(w http.ResponseWriter, v models.Violations) {
	httpx.Error(w, http.StatusBadRequest, "Validation failed", "validation", v)
}

// writeBackendError answers with the localized message of a known backend code.
func writeBackendError(w http.ResponseWriter, r *http.Request, status int, code string) {
	httpx.Error(w, status, auth.Localize(code, language(r)), code, nil)
}

func language(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return auth.DetectLanguage(lang)
	}
	return auth.DetectLanguage(r.Header.Get("Accept-Language"))
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", "too-large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Failed to read request body", "bad-request")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", "bad-request")
		return false
	}
	return true
}

func isNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}

// taken interprets a user lookup: it reports whether an account other than self
// was found, and passes store failures other than not-found through.
func taken(user *models.User, err error, self string) (bool, error) {
	switch {
	case err == nil:
		return user.ID != self, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}
