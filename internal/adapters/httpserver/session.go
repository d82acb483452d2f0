package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/phenrril/catering/internal/domain"
)

const (
	sessionCookie = "session"
	issuer        = "catering"
)

type sessionClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies the signed session cookie.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	Secure bool
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl}
}

func (s *Sessions) Issue(id domain.Identity) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	claims := sessionClaims{
		Email: id.Name,
		Roles: domain.RoleNames(id.Roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Name,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return tok, exp, err
}

func (s *Sessions) Parse(tok string) (domain.Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return domain.Identity{}, err
	}
	if claims.Email == "" {
		return domain.Identity{}, errors.New("session: empty subject")
	}
	return domain.Identity{
		Name:  strings.ToLower(claims.Email),
		Roles: domain.ParseRoles(strings.Join(claims.Roles, ",")),
	}, nil
}

// Read returns the anonymous identity when the cookie is missing or invalid.
func (s *Sessions) Read(r *http.Request) domain.Identity {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return domain.Identity{}
	}
	id, err := s.Parse(c.Value)
	if err != nil {
		return domain.Identity{}
	}
	return id
}

func (s *Sessions) Write(w http.ResponseWriter, id domain.Identity) error {
	tok, exp, err := s.Issue(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name: sessionCookie, Value: tok, Path: "/", Expires: exp,
		HttpOnly: true, Secure: s.Secure, SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: s.Secure, SameSite: http.SameSiteLaxMode})
}
