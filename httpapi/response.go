package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	wellness "github.com/Dinesh17-Dev/wellness-session-app"
)

const msgInternal = "internal server error"

// decode fills dst from the request body. A missing or malformed body leaves
// dst at its zero value so the engine answers with its own "required" error.
func (a *api) decode(w http.ResponseWriter, r *http.Request, dst any) {
	if r.Body == nil {
		return
	}
	body := http.MaxBytesReader(w, r.Body, a.maxBodyBytes)
	_ = json.NewDecoder(body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	OK    *bool  `json:"ok,omitempty"`
}

// writeError maps engine error kinds to status codes. withOK adds "ok":false,
// which login responses have always carried.
func writeError(w http.ResponseWriter, r *http.Request, err error, withOK bool) {
	status := http.StatusInternalServerError
	message := msgInternal

	if e, ok := wellness.AsError(err); ok {
		message = e.Message
		switch {
		case errors.Is(e, wellness.ErrBadRequest):
			status = http.StatusBadRequest
		case errors.Is(e, wellness.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(e, wellness.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(e, wellness.ErrConflict):
			status = http.StatusConflict
		default:
			message = msgInternal
		}
	}
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}

	resp := errorResponse{Error: message}
	if withOK {
		notOK := false
		resp.OK = &notOK
	}
	writeJSON(w, status, resp)
}
