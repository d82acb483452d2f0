package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/catering/internal/domain"
)

const googleUserInfo = "https://www.googleapis.com/oauth2/v3/userinfo"

func (s *Server) loginData(returnURL, email string) map[string]any {
	return map[string]any{
		"Title":         "Log in",
		"ReturnURL":     safeReturn(returnURL, "/customers"),
		"Email":         email,
		"GoogleEnabled": s.oauthCfg != nil,
	}
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if identityFrom(r.Context()).Authenticated() {
		http.Redirect(w, r, safeReturn(r.URL.Query().Get("returnURL"), "/customers"), http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", s.loginData(r.URL.Query().Get("returnURL"), ""))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	back := r.FormValue("returnURL")
	id, err := s.auth.Login(r.Context(), email, r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			log.Error().Err(err).Msg("login")
		}
		data := s.loginData(back, email)
		data["Message"] = "Invalid login attempt."
		data["MessageClass"] = "err"
		s.render(w, r, http.StatusUnauthorized, "login.html", data)
		return
	}
	if err := s.sessions.Write(w, id); err != nil {
		s.serverError(w, r, err, "issue session")
		return
	}
	log.Info().Str("user", id.Name).Msg("login")
	http.Redirect(w, r, safeReturn(back, "/customers"), http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth not configured", http.StatusNotFound)
		return
	}
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: state, Path: "/", MaxAge: 300, HttpOnly: true, Secure: s.sessions.Secure})
	http.SetCookie(w, &http.Cookie{Name: "oauth_return", Value: safeReturn(r.URL.Query().Get("returnURL"), "/customers"), Path: "/", MaxAge: 300, HttpOnly: true, Secure: s.sessions.Secure})
	http.Redirect(w, r, s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// handleGoogleCallback signs in an existing account whose email Google has
// verified. Unknown addresses are refused.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth not configured", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	c, _ := r.Cookie("oauth_state")
	if c == nil || c.Value == "" || c.Value != q.Get("state") {
		http.Error(w, "state", http.StatusBadRequest)
		return
	}
	tok, err := s.oauthCfg.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("exchange oauth")
		http.Error(w, "oauth", http.StatusBadRequest)
		return
	}
	resp, err := s.oauthCfg.Client(r.Context(), tok).Get(googleUserInfo)
	if err != nil {
		log.Error().Err(err).Msg("userinfo")
		http.Error(w, "userinfo", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("userinfo")
		http.Error(w, "userinfo", http.StatusBadGateway)
		return
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var info struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	_ = json.Unmarshal(body, &info)
	if info.Email == "" || !info.EmailVerified {
		http.Error(w, "email", http.StatusBadRequest)
		return
	}
	id, err := s.auth.Resolve(r.Context(), info.Email)
	if errors.Is(err, domain.ErrNotFound) {
		data := s.loginData("", "")
		data["Message"] = "There is no account for " + info.Email + "."
		data["MessageClass"] = "err"
		s.render(w, r, http.StatusForbidden, "login.html", data)
		return
	}
	if err != nil {
		s.serverError(w, r, err, "resolve oauth user")
		return
	}
	if err := s.sessions.Write(w, id); err != nil {
		s.serverError(w, r, err, "issue session")
		return
	}
	back := "/customers"
	if rc, err := r.Cookie("oauth_return"); err == nil {
		back = safeReturn(rc.Value, back)
	}
	http.Redirect(w, r, back, http.StatusFound)
}
