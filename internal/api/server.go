// Package api serves stored menus and the refresh trigger over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/store"
	"github.com/sells-group/lunch-cli/internal/trigger"
)

// MenuSource loads the dated collection. store.Store satisfies it.
type MenuSource interface {
	Load(ctx context.Context, date string) (model.Collection, error)
}

// Firer starts a remote scrape run.
type Firer interface {
	Fire(ctx context.Context) (*trigger.Result, error)
}

// Options tune the Server.
type Options struct {
	// Location decides the default date when none is requested.
	Location    *time.Location
	CORSOrigins []string
}

// Server is the HTTP surface of the menu collection.
type Server struct {
	menus       MenuSource
	restaurants []model.Restaurant
	trigger     Firer
	opts        Options
	now         func() time.Time
}

// New creates a Server. restaurants seed the placeholder response for dates
// with no stored data.
func New(menus MenuSource, restaurants []model.Restaurant, trig Firer, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{menus: menus, restaurants: restaurants, trigger: trig, opts: opts, now: time.Now}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/menus", s.handleMenus)
		r.Post("/scrape", s.handleScrape)
	})
	return r
}

type menusResponse struct {
	Date        string           `json:"date"`
	Menus       model.Collection `json:"menus"`
	LastUpdated *time.Time       `json:"lastUpdated"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleMenus(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = locale.Today(s.now(), s.opts.Location).ISODate()
	}
	if err := store.ValidDate(date); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid date, expected YYYY-MM-DD"})
		return
	}

	menus, err := s.menus.Load(r.Context(), date)
	if err != nil {
		zap.L().Error("api: load menus", zap.String("date", date), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch menu data"})
		return
	}

	if len(menus) == 0 {
		writeJSON(w, http.StatusOK, menusResponse{Date: date, Menus: s.placeholders(date)})
		return
	}
	writeJSON(w, http.StatusOK, menusResponse{Date: date, Menus: menus, LastUpdated: menus.LastUpdated()})
}

// placeholders returns one unavailable record per configured restaurant.
func (s *Server) placeholders(date string) model.Collection {
	t, _ := time.Parse(model.DateLayout, date)
	dayName := locale.Name(t.Weekday())
	out := make(model.Collection, 0, len(s.restaurants))
	for _, r := range s.restaurants {
		out = append(out, model.PlaceholderMenu(r, date, dayName))
	}
	return out
}

type scrapeResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	StartedAt time.Time `json:"startedAt"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	res, err := s.trigger.Fire(r.Context())
	var cooldown *trigger.CooldownError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, scrapeResponse{Success: true, Message: res.Message, StartedAt: res.StartedAt})
	case errors.As(err, &cooldown):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: cooldown.Error()})
	case errors.Is(err, trigger.ErrNotConfigured):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server configuration error"})
	case errors.Is(err, trigger.ErrDispatch):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to trigger scraping"})
	default:
		zap.L().Error("api: trigger scrape", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
