package server

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// RespondWithJSON writes data as a JSON response with the given status.
func RespondWithJSON(code int, w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("could not write JSON response")
	}
}

func respondError(code int, w http.ResponseWriter, message string) {
	RespondWithJSON(code, w, map[string]interface{}{"code": code, "message": message})
}
