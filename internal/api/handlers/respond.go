package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
)

func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR [handlers] failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

func respondInternalError(w http.ResponseWriter, err error) {
	log.Printf("ERROR [handlers] %v", err)
	respondError(w, http.StatusInternalServerError, "Internal server error.")
}

// respondValidationError reports field-level messages when the error
// came from payload validation.
func respondValidationError(w http.ResponseWriter, err error) {
	if fieldErrors, ok := err.(validation.Errors); ok {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation error.",
			"details": fieldErrors,
		})
		return
	}
	respondError(w, http.StatusBadRequest, err.Error())
}
