package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/service"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

var statusByKind = map[service.Kind]int{
	service.KindNotFound:      http.StatusNotFound,
	service.KindValidation:    http.StatusBadRequest,
	service.KindDiscount:      http.StatusUnprocessableEntity,
	service.KindAuthorization: http.StatusForbidden,
	service.KindConflict:      http.StatusConflict,
	service.KindTransport:     http.StatusBadGateway,
}

// writeError maps service errors onto HTTP statuses; anything else is a 500
// whose detail stays in the log.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var serr *service.Error
	if errors.As(err, &serr) {
		writeJSON(w, statusByKind[serr.Kind], map[string]string{"error": string(serr.Reason), "message": serr.Message})
		return
	}
	logger.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body", "message": err.Error()})
		return false
	}
	return true
}
