package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/catering/internal/domain"
	"github.com/phenrril/catering/internal/usecase"
)

type Server struct {
	router    chi.Router
	tmpl      *template.Template
	customers *usecase.CustomerUC
	notify    *usecase.NotifyUC
	auth      *usecase.AuthUC
	sessions  *Sessions
	pageSizes domain.PageSizeStore
	oauthCfg  *oauth2.Config
	health    func(ctx context.Context) error

	siteName        string
	defaultPageSize int
}

type Options struct {
	Templates *template.Template
	Customers *usecase.CustomerUC
	Notify    *usecase.NotifyUC
	Auth      *usecase.AuthUC
	Sessions  *Sessions
	// PageSizes is optional; the page size cookie is used when nil.
	PageSizes       domain.PageSizeStore
	OAuth           *oauth2.Config
	Health          func(ctx context.Context) error
	SiteName        string
	DefaultPageSize int
}

func New(o Options) http.Handler {
	s := &Server{
		tmpl:            o.Templates,
		customers:       o.Customers,
		notify:          o.Notify,
		auth:            o.Auth,
		sessions:        o.Sessions,
		pageSizes:       o.PageSizes,
		oauthCfg:        o.OAuth,
		health:          o.Health,
		siteName:        o.SiteName,
		defaultPageSize: o.DefaultPageSize,
	}
	if s.sessions == nil {
		s.sessions = NewSessions("dev-insecure", 0)
	}
	if !domain.ValidPageSize(s.defaultPageSize) {
		s.defaultPageSize = domain.DefaultPageSize
	}
	if s.siteName == "" {
		s.siteName = "Catering"
	}
	s.routes()
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, s.loadIdentity, Logging)

	r.Get("/healthz", s.handleHealth)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/customers", http.StatusFound)
	})

	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)
	r.Post("/logout", s.handleLogout)
	r.Get("/auth/google/login", s.handleGoogleLogin)
	r.Get("/auth/google/callback", s.handleGoogleCallback)

	r.Route("/customers", func(r chi.Router) {
		r.Use(s.requireIdentity)
		r.Get("/", s.handleCustomerList)
		r.Get("/export", s.handleCustomerExport)
		r.Get("/create", s.handleCustomerCreateForm)
		r.Post("/create", s.handleCustomerCreate)

		r.Get("/notify/one", s.handleNotifyOneForm)
		r.Post("/notify/one", s.handleNotifyOne)
		r.Get("/notify/many", s.handleNotifyManyForm)
		r.Post("/notify/many", s.handleNotifyMany)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleCustomerDetails)
			r.Get("/edit", s.handleCustomerEditForm)
			r.Post("/edit", s.handleCustomerEdit)
			r.Get("/delete", s.handleCustomerDeleteForm)
			r.Post("/delete", s.handleCustomerDelete)
			r.Get("/photo", s.handlePicture(domain.LoadPhoto))
			r.Get("/thumbnail", s.handlePicture(domain.LoadThumbnail))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "Not found", "The page you asked for does not exist.")
	})
	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			log.Error().Err(err).Msg("health")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "down"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// render fills in the values every page needs before executing name.
func (s *Server) render(w http.ResponseWriter, r *http.Request, code int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	id := identityFrom(r.Context())
	data["Year"] = time.Now().Year()
	data["SiteName"] = s.siteName
	data["Identity"] = id
	data["Roles"] = domain.RoleNames(id.Roles)
	if _, ok := data["Title"]; !ok {
		data["Title"] = ""
	}
	if _, ok := data["Message"]; !ok {
		data["Message"] = ""
	}
	if _, ok := data["MessageClass"]; !ok {
		data["MessageClass"] = ""
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("tpl", name).Msg("render")
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, code int, title, detail string) {
	s.render(w, r, code, "error.html", map[string]any{"Title": title, "Detail": detail})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg(msg)
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong",
		"Try again, and if the problem persists see your system administrator.")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// safeReturn only accepts local paths so returnURL cannot redirect off-site.
func safeReturn(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	return raw
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"add":  func(a, b int) int { return a + b },
		"sub":  func(a, b int) int { return a - b },
		"join": strings.Join,
		"money": func(v float64) string {
			s := fmt.Sprintf("%.2f", v)
			intPart, frac := s[:len(s)-3], s[len(s)-3:]
			neg := strings.HasPrefix(intPart, "-")
			intPart = strings.TrimPrefix(intPart, "-")
			n := len(intPart)
			if n > 3 {
				rem := n % 3
				if rem == 0 {
					rem = 3
				}
				out := intPart[:rem]
				for i := rem; i < n; i += 3 {
					out += "," + intPart[i:i+3]
				}
				intPart = out
			}
			if neg {
				return "-$" + intPart + frac
			}
			return "$" + intPart + frac
		},
	}
}
