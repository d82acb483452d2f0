package httpserver

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/catering/internal/domain"
)

func resultClass(res domain.NotifyResult) string {
	if res.OK() {
		return "ok"
	}
	return "err"
}

func (s *Server) notifyOneData(r *http.Request, selectedID, subject, content string) (map[string]any, error) {
	recipients, err := s.notify.Recipients(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"Title":      "Email a Customer",
		"Recipients": recipients,
		"SelectedID": selectedID,
		"Subject":    subject,
		"Content":    content,
	}, nil
}

func (s *Server) handleNotifyOneForm(w http.ResponseWriter, r *http.Request) {
	data, err := s.notifyOneData(r, r.URL.Query().Get("id"), "", "")
	if err != nil {
		s.serverError(w, r, err, "notify recipients")
		return
	}
	s.render(w, r, http.StatusOK, "notify_one.html", data)
}

func (s *Server) handleNotifyOne(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", http.StatusBadRequest)
		return
	}
	who := identityFrom(r.Context())
	if err := domain.Authorize(domain.ActionNotify, nil, who); err != nil {
		s.renderError(w, r, http.StatusForbidden, "Access denied", err.Error())
		return
	}
	id := r.FormValue("customerID")
	subject, content := r.FormValue("Subject"), r.FormValue("emailContent")
	res := s.notify.SendOne(r.Context(), who, id, subject, content)
	log.Info().Str("status", res.Status.String()).Int("sent", res.Sent).Msg("notify one")

	if res.OK() {
		subject, content = "", ""
	}
	data, err := s.notifyOneData(r, id, subject, content)
	if err != nil {
		s.serverError(w, r, err, "notify recipients")
		return
	}
	data["Message"] = res.Message
	data["MessageClass"] = resultClass(res)
	s.render(w, r, http.StatusOK, "notify_one.html", data)
}

func (s *Server) notifyManyData(r *http.Request, selected []string, subject, content string) (map[string]any, error) {
	sel, avail, err := s.notify.Options(r.Context(), selected)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"Title":     "Email Customers",
		"Selected":  sel,
		"Available": avail,
		"Subject":   subject,
		"Content":   content,
	}, nil
}

func (s *Server) handleNotifyManyForm(w http.ResponseWriter, r *http.Request) {
	data, err := s.notifyManyData(r, r.URL.Query()["id"], "", "")
	if err != nil {
		s.serverError(w, r, err, "notify options")
		return
	}
	s.render(w, r, http.StatusOK, "notify_many.html", data)
}

func (s *Server) handleNotifyMany(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", http.StatusBadRequest)
		return
	}
	who := identityFrom(r.Context())
	if err := domain.Authorize(domain.ActionNotify, nil, who); err != nil {
		s.renderError(w, r, http.StatusForbidden, "Access denied", err.Error())
		return
	}
	selected := r.PostForm["selectedOptions"]
	subject, content := r.FormValue("Subject"), r.FormValue("emailContent")
	res := s.notify.SendMany(r.Context(), who, selected, subject, content)
	log.Info().Str("status", res.Status.String()).Int("sent", res.Sent).Int("selected", res.Selected).Msg("notify many")

	if res.OK() {
		subject, content = "", ""
	}
	data, err := s.notifyManyData(r, selected, subject, content)
	if err != nil {
		s.serverError(w, r, err, "notify options")
		return
	}
	data["Message"] = res.Message
	data["MessageClass"] = resultClass(res)
	s.render(w, r, http.StatusOK, "notify_many.html", data)
}
