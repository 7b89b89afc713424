// internal/adapters/http_server/handlers.go
package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"soarfare/internal/adapters/soarfare"
	"soarfare/internal/app"
	"soarfare/internal/domain"
)

// MockHeader marks a flight-search answer fabricated by the mock double.
const MockHeader = "X-Soarfare-Mock"

type Handlers struct {
	Client    *soarfare.Client
	Content   *app.ContentService
	Search    *app.FlightSearchService
	Booking   *app.BookingService
	Dashboard *app.DashboardService
	Sessions  domain.SessionStore
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/register", h.register)
		r.Get("/faqs", h.faqs)
		r.Get("/testimonials", h.testimonials)
		r.Post("/flights/search", h.searchFlights)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(s.sessions))
			r.Get("/booking/selected", h.selectedFlight)
			r.Put("/booking/traveler", h.saveTraveler)
			r.Get("/booking/traveler", h.traveler)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireToken)
			r.Get("/profile", h.profile)
			r.Get("/points", h.points)
			r.Post("/points/purchase", h.purchasePoints)
			r.Get("/flights/{id}/fare-source-code", h.fareSourceCode)
			r.Get("/bookings", h.bookings)
			r.Get("/invoices", h.invoices)

			r.With(RequireSession(s.sessions)).Post("/booking/book", h.bookNow)
			r.With(RequireSession(s.sessions)).Post("/booking/purchase", h.bookWithPurchase)
		})
	})
}

// ---- auth pass-through ----

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Malformed request body.", nil)
		return
	}
	if errs := requireFields(fields, "email", "password"); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}
	h.forward(w, r, soarfare.Call{
		Method: http.MethodPost,
		Path:   soarfare.EndpointLogin,
		Form:   pick(fields, "email", "password"),
	})
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Malformed request body.", nil)
		return
	}
	errs := requireFields(fields, "name", "email", "password", "password_confirmation")
	if p, c := fields.Get("password"), fields.Get("password_confirmation"); p != "" && c != "" && p != c {
		errs = append(errs, "The password confirmation does not match.")
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}
	h.forward(w, r, soarfare.Call{
		Method: http.MethodPost,
		Path:   soarfare.EndpointRegister,
		Form:   pick(fields, "name", "email", "password", "password_confirmation"),
	})
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Client.Profile(r.Context(), Token(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, p)
}

func (h *Handlers) forward(w http.ResponseWriter, r *http.Request, call soarfare.Call) {
	reply, err := h.Client.Forward(r.Context(), call)
	if err != nil {
		writeError(w, err)
		return
	}
	relay(w, reply)
}

func pick(v map[string][]string, keys ...string) map[string][]string {
	out := make(map[string][]string, len(keys))
	for _, k := range keys {
		if vals, ok := v[k]; ok {
			out[k] = vals
		}
	}
	return out
}

// ---- content ----

func (h *Handlers) faqs(w http.ResponseWriter, r *http.Request) {
	items, src := h.Content.FAQs(r.Context())
	w.Header().Set("X-Content-Source", src)
	writeWithETag(w, r, envelope{Success: true, Data: items})
}

func (h *Handlers) testimonials(w http.ResponseWriter, r *http.Request) {
	items, src := h.Content.Testimonials(r.Context())
	w.Header().Set("X-Content-Source", src)
	writeWithETag(w, r, envelope{Success: true, Data: items})
}

// ---- flight search ----

func (h *Handlers) searchFlights(w http.ResponseWriter, r *http.Request) {
	var req app.SearchRequest
	if isJSON(r) {
		b, err := readBody(r)
		if err == nil {
			// an empty body is an empty search, not a malformed one
			if len(bytes.TrimSpace(b)) == 0 {
				b = []byte("{}")
			}
			req, err = app.SearchRequestFromJSON(b)
		}
		if err != nil {
			writeFail(w, http.StatusBadRequest, "Malformed request body.", nil)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeFail(w, http.StatusBadRequest, "Malformed request body.", nil)
			return
		}
		req = app.SearchRequestFromForm(r.Form)
	}

	res, err := h.Search.Search(r.Context(), Token(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Mock {
		w.Header().Set(MockHeader, "1")
	}
	relay(w, res.Relay)
}

// ---- points & booking ----

func (h *Handlers) points(w http.ResponseWriter, r *http.Request) {
	up, err := h.Booking.GetUserPoints(r.Context(), Token(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"points": up.Balance})
}

func (h *Handlers) purchasePoints(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Malformed request body.", nil)
		return
	}
	raw := fields.Get("amount")
	if raw == "" {
		writeValidation(w, []string{"The amount field is required."})
		return
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount < 0 {
		writeValidation(w, []string{"The amount must be a non-negative integer."})
		return
	}
	res, err := h.Booking.PurchasePoints(r.Context(), Token(r.Context()), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"transaction_id": res.TransactionID, "points": res.Points})
}

func (h *Handlers) fareSourceCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.Booking.GetFareSourceCode(r.Context(), Token(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"fare_source_code": code})
}

// newCard builds a card for the flight in the request body with a fresh balance.
func (h *Handlers) newCard(w http.ResponseWriter, r *http.Request) (*app.FlightCard, bool) {
	b, err := readBody(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Malformed request body.", nil)
		return nil, false
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		writeFail(w, http.StatusBadRequest, "Malformed request body.", nil)
		return nil, false
	}
	// accept either the flight itself or {"flight": {...}}
	if inner, ok := raw["flight"].(map[string]any); ok {
		raw = inner
	}
	f := app.MapFlight(raw)
	if f.ID == "" {
		writeValidation(w, []string{"The flight id field is required."})
		return nil, false
	}
	card := app.NewFlightCard(h.Booking, h.Sessions, Token(r.Context()), SessionID(r.Context()), f)
	card.LoadPoints(r.Context())
	return card, true
}

func (h *Handlers) bookNow(w http.ResponseWriter, r *http.Request) {
	card, ok := h.newCard(w, r)
	if !ok {
		return
	}
	out, err := card.BookNow(r.Context(), app.ParsePassengers(r.URL.Query()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, out)
}

// bookWithPurchase runs the whole insufficient-points path in one call:
// check, buy the difference, then book.
func (h *Handlers) bookWithPurchase(w http.ResponseWriter, r *http.Request) {
	card, ok := h.newCard(w, r)
	if !ok {
		return
	}
	out, err := card.BookNow(r.Context(), app.ParsePassengers(r.URL.Query()))
	if err != nil {
		writeError(w, err)
		return
	}
	if out.State == app.StateAwaitingPurchaseDecision {
		if out, err = card.PurchasePoints(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}
	writeOK(w, out)
}

func (h *Handlers) selectedFlight(w http.ResponseWriter, r *http.Request) {
	sf, err := h.Sessions.SelectedFlight(r.Context(), SessionID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, sf)
}

func (h *Handlers) saveTraveler(w http.ResponseWriter, r *http.Request) {
	b, err := readBody(r)
	if err != nil || !json.Valid(b) || strings.TrimSpace(string(b)) == "" {
		writeFail(w, http.StatusBadRequest, "Traveler details must be a JSON document.", nil)
		return
	}
	if err := h.Sessions.SaveTravelerDetails(r.Context(), SessionID(r.Context()), b); err != nil {
		log.Error().Err(err).Msg("save traveler details failed")
		writeFail(w, http.StatusInternalServerError, "Could not save traveler details.", nil)
		return
	}
	writeOK(w, json.RawMessage(b))
}

func (h *Handlers) traveler(w http.ResponseWriter, r *http.Request) {
	d, err := h.Sessions.TravelerDetails(r.Context(), SessionID(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeFail(w, http.StatusNotFound, "No traveler details saved.", nil)
			return
		}
		writeError(w, err)
		return
	}
	writeOK(w, d)
}

// ---- dashboard ----

func listParams(r *http.Request) (int, string) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return page, strings.TrimSpace(r.URL.Query().Get("search"))
}

func (h *Handlers) bookings(w http.ResponseWriter, r *http.Request) {
	page, search := listParams(r)
	st, err := h.Dashboard.Bookings(r.Context(), Token(r.Context()), SessionID(r.Context()), page, search)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, st)
}

func (h *Handlers) invoices(w http.ResponseWriter, r *http.Request) {
	page, search := listParams(r)
	st, err := h.Dashboard.Invoices(r.Context(), Token(r.Context()), SessionID(r.Context()), page, search)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, st)
}
