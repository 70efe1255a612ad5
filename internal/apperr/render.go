package apperr

import (
	"encoding/json"
	"net/http"
)

// body is the uniform error payload. Every rejection renders this shape,
// never a bare status code.
type body struct {
	Status      int    `json:"status"`
	Description string `json:"description"`
	Redirect    string `json:"redirect,omitempty"`
}

// Render writes the uniform error body for err. Foreign errors are
// normalized to the internal kind first.
func Render(w http.ResponseWriter, err error) {
	e := From(err)
	payload := body{
		Status:      e.Status(),
		Description: e.Description(),
	}
	if to, ok := e.Redirect(); ok {
		payload.Redirect = to
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(payload.Status)
	_ = json.NewEncoder(w).Encode(payload)
}
