package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterHealth registers the liveness probe
func RegisterHealth(router *mux.Router, serviceName string) {
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ResponseWithJson(w, http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
	}).Methods("GET")
}

func ResponseWithJson(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func ResponseError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
