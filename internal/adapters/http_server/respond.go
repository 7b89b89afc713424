package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"soarfare/internal/adapters/soarfare"
	"soarfare/internal/app"
	"soarfare/internal/domain"
)

const maxRequestBody = 1 << 20

// envelope mirrors the backend's response shape so the browser sees one format.
type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeFail(w http.ResponseWriter, status int, msg string, errs []string) {
	writeJSON(w, status, envelope{Success: false, Message: msg, Errors: errs})
}

func writeValidation(w http.ResponseWriter, errs []string) {
	writeFail(w, http.StatusUnprocessableEntity, "The given data was invalid.", errs)
}

// writeError maps service errors to statuses. Backend failures keep the
// backend's status and message.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *soarfare.APIError
	var verr *app.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr.Errors)
	case errors.Is(err, domain.ErrUnauthorized):
		writeFail(w, http.StatusUnauthorized, "Unauthenticated.", nil)
	case errors.Is(err, domain.ErrForbidden):
		writeFail(w, http.StatusForbidden, "Forbidden.", nil)
	case errors.Is(err, domain.ErrNotFound):
		writeFail(w, http.StatusNotFound, "Not found.", nil)
	case errors.Is(err, domain.ErrNoSession):
		writeFail(w, http.StatusBadRequest, "No booking session.", nil)
	case errors.Is(err, domain.ErrSuperseded):
		writeFail(w, http.StatusConflict, "Superseded by a newer request.", nil)
	case errors.Is(err, domain.ErrNotAwaitingPurchase), errors.Is(err, domain.ErrInsufficientPoints):
		writeFail(w, http.StatusConflict, err.Error(), nil)
	case errors.As(err, &apiErr) && apiErr.Status >= 400:
		writeFail(w, apiErr.Status, orMessage(apiErr.Message, http.StatusText(apiErr.Status)), nil)
	default:
		log.Error().Err(err).Msg("upstream request failed")
		writeFail(w, http.StatusBadGateway, "Upstream service unavailable.", nil)
	}
}

func orMessage(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// relay copies a backend reply to the browser unchanged.
func relay(w http.ResponseWriter, reply domain.Relay) {
	ct := reply.ContentType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(reply.Status)
	if _, err := w.Write(reply.Body); err != nil {
		log.Error().Err(err).Msg("relay backend body failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write body")
	}
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
}

// readFields accepts a JSON object or a form body and returns flat string fields.
func readFields(r *http.Request) (url.Values, error) {
	if !isJSON(r) {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		return r.PostForm, nil
	}
	b, err := readBody(r)
	if err != nil {
		return nil, err
	}
	out := url.Values{}
	if len(b) == 0 {
		return out, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	for k, v := range m {
		switch t := v.(type) {
		case string:
			out.Set(k, t)
		case float64:
			out.Set(k, strconv.FormatFloat(t, 'f', -1, 64))
		case bool:
			out.Set(k, strconv.FormatBool(t))
		}
	}
	return out, nil
}

// requireFields returns "The <field> field is required." for each blank field.
func requireFields(v url.Values, fields ...string) []string {
	var errs []string
	for _, f := range fields {
		if v.Get(f) == "" {
			errs = append(errs, fmt.Sprintf("The %s field is required.", humanField(f)))
		}
	}
	return errs
}

func humanField(f string) string {
	b := []byte(f)
	for i, c := range b {
		if c == '_' {
			b[i] = ' '
		}
	}
	return string(b)
}
