// Package httpapi is the ambient HTTP transport for the Turn Orchestrator:
// a chi router, request-scoped middleware, and the §6 turn endpoint.
// Grounded on the teacher's non-Lambda router (interfaces/http/rest) for
// the chi/cors/zap wiring shape and on pkg/api/helpers.go for the
// Success/Error response envelope, with the Lambda-specific pkg/api
// surface (GatewayResponse, APIGatewayProxyResponse) left behind entirely.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// Success writes data as a JSON body with the given status code. A nil
// data writes the status code alone, matching the teacher helper's
// "no body on 204-style responses" behavior.
func Success(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes {"error": message} as a JSON body with the given status
// code.
func Error(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
