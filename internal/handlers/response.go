package handlers

import (
	"encoding/json"
	"net/http"
)

type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

func responseWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func responseWithFields(w http.ResponseWriter, code int, payload ...Payload) {
	storage := make(map[string]any, len(payload))
	for _, pl := range payload {
		storage[pl.Key] = pl.Payload
	}
	responseWithJSON(w, code, storage)
}

func responseWithError(w http.ResponseWriter, code int, message string) {
	responseWithFields(w, code, toPayload("error", message))
}
