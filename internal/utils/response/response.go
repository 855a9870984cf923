package response

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the failure envelope: every non-2xx response carries a
// single error string and nothing else.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func Error(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errorMessages string
	for _, err := range errs {
		errorMessages += err.Field() + ": " + err.Tag() + "; "
	}

	return ErrorResponse{Error: errorMessages}
}
