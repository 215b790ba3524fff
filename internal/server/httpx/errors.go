package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/pinboard/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
}

func isUnauthenticated(err error) bool {
	return errors.Is(err, common.ErrorUnauthenticated)
}

// fail translates err into a response. Unexpected errors are logged here and
// reach the client only as a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError

	switch {
	case isUnauthenticated(err):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, common.ErrorMissingFile):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: common.ErrorMissingFile.Error()})
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: from(err, common.ErrorValidation)})
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "upload too large"})
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: common.ErrorInvalidCredentials.Error()})
	case errors.Is(err, common.ErrorForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: common.ErrorForbidden.Error()})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: common.ErrorNotFound.Error()})
	case errors.Is(err, common.ErrorAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: "username is already taken"})
	default:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: common.ErrorInternal.Error()})
	}
}

// from cuts the wrapping context in front of sentinel, keeping the message
// attached to it ("validation error: title is required").
func from(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		return msg[i:]
	}
	return sentinel.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
