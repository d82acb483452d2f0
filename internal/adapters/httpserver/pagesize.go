package httpserver

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/catering/internal/domain"
)

func pageSizeCookie(list string) string { return "pageSize_" + list }

// pageSize resolves the page size for a list: an explicit pageSizeID wins
// and is remembered, then the stored preference, then the default.
func (s *Server) pageSize(w http.ResponseWriter, r *http.Request, who domain.Identity, list string) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("pageSizeID")); err == nil && domain.ValidPageSize(n) {
		s.rememberPageSize(w, r, who, list, n)
		return n
	}
	if s.pageSizes != nil {
		if n, ok := s.pageSizes.PageSize(r.Context(), who.Name, list); ok {
			return n
		}
	}
	if c, err := r.Cookie(pageSizeCookie(list)); err == nil {
		if n, err := strconv.Atoi(c.Value); err == nil && domain.ValidPageSize(n) {
			return n
		}
	}
	return s.defaultPageSize
}

func (s *Server) rememberPageSize(w http.ResponseWriter, r *http.Request, who domain.Identity, list string, n int) {
	http.SetCookie(w, &http.Cookie{
		Name: pageSizeCookie(list), Value: strconv.Itoa(n), Path: "/",
		MaxAge: 60 * 60 * 24 * 365, HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
	if s.pageSizes == nil {
		return
	}
	if err := s.pageSizes.SetPageSize(r.Context(), who.Name, list, n); err != nil {
		log.Warn().Err(err).Msg("store page size")
	}
}
