package httpserver

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/catering/internal/adapters/export"
	"github.com/phenrril/catering/internal/domain"
	"github.com/phenrril/catering/internal/usecase"
)

const (
	maxUpload = 10 << 20

	msgSaveFailed = "Unable to save changes. Try again, and if the problem persists see your system administrator."
	msgDuplicate  = "Unable to save changes. Remember, you cannot have duplicate Customer Codes."
	msgStale      = "The record you attempted to edit was modified by another user after you received the original value. " +
		"The edit operation was cancelled and the current values in the database have been displayed. " +
		"If you still want to edit this record, click the Save button again."
	msgGone       = "Unable to save changes. The Customer was deleted by another user."
	msgReferenced = "Unable to Delete Customer. Remember, you cannot delete a Customer that has a function in the system."
)

type pageLinks struct {
	First, Previous, Next, Last string
}

func listLinks(sort domain.SortState, p domain.PageInfo) pageLinks {
	at := func(page int) string {
		q := url.Values{}
		q.Set("sortField", string(sort.Field))
		q.Set("sortDirection", string(sort.Direction))
		q.Set("pageSizeID", strconv.Itoa(p.PageSize))
		q.Set("page", strconv.Itoa(page))
		return "/customers?" + q.Encode()
	}
	return pageLinks{First: at(1), Previous: at(p.Page - 1), Next: at(p.Page + 1), Last: at(p.TotalPages)}
}

func (s *Server) handleCustomerList(w http.ResponseWriter, r *http.Request) {
	who := identityFrom(r.Context())
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	req := usecase.ListRequest{
		Sort:     domain.NewSortState(q.Get("sortField"), q.Get("sortDirection")),
		Button:   q.Get("actionButton"),
		Page:     page,
		PageSize: s.pageSize(w, r, who, "customers"),
	}
	res, err := s.customers.List(r.Context(), req)
	if err != nil {
		s.serverError(w, r, err, "list customers")
		return
	}
	s.render(w, r, http.StatusOK, "customers_index.html", map[string]any{
		"Title":      "Customers",
		"Page":       res,
		"Sort":       res.Sort,
		"SortFields": domain.SortFields,
		"PageSizes":  domain.PageSizeOptions,
		"Links":      listLinks(res.Sort, res.PageInfo),
		"CanCreate":  domain.Can(domain.ActionCreate, nil, who),
		"CanDelete":  domain.Can(domain.ActionDelete, nil, who),
		"ReturnURL":  r.URL.RequestURI(),
		"Message":    q.Get("msg"),
	})
}

func (s *Server) handleCustomerDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Not found", "No such customer.")
		return
	}
	c, err := s.customers.Details(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound, "Not found", "No such customer.")
		return
	}
	if err != nil {
		s.serverError(w, r, err, "customer details")
		return
	}
	who := identityFrom(r.Context())
	s.render(w, r, http.StatusOK, "customers_details.html", map[string]any{
		"Title":     c.FullName(),
		"Customer":  c,
		"CanDelete": domain.Can(domain.ActionDelete, c, who),
	})
}

func (s *Server) formData(title, action string, c *domain.Customer, in domain.CustomerInput) map[string]any {
	return map[string]any{
		"Title":    title,
		"Action":   action,
		"Customer": c,
		"Input":    in,
		"Errors":   map[string]string{},
		"Current":  map[string]string{},
		"Disabled": false,
	}
}

func (s *Server) handleCustomerCreateForm(w http.ResponseWriter, r *http.Request) {
	who := identityFrom(r.Context())
	if err := domain.Authorize(domain.ActionCreate, nil, who); err != nil {
		s.renderError(w, r, http.StatusForbidden, "Access denied", err.Error())
		return
	}
	s.render(w, r, http.StatusOK, "customers_form.html", s.formData("Create Customer", "/customers/create", nil, domain.CustomerInput{}))
}

func (s *Server) handleCustomerCreate(w http.ResponseWriter, r *http.Request) {
	who := identityFrom(r.Context())
	if err := parseForm(r); err != nil {
		http.Error(w, "form", http.StatusBadRequest)
		return
	}
	in := inputFromForm(r)
	up, err := uploadFromForm(r, "thePicture")
	if err != nil {
		http.Error(w, "upload", http.StatusBadRequest)
		return
	}
	c, err := s.customers.Create(r.Context(), who, in, up)
	if err == nil {
		http.Redirect(w, r, "/customers/"+c.ID.String(), http.StatusFound)
		return
	}
	if domain.IsForbidden(err) {
		s.renderError(w, r, http.StatusForbidden, "Access denied", err.Error())
		return
	}
	data := s.formData("Create Customer", "/customers/create", nil, in)
	data["Errors"] = s.writeErrors(r, err)
	s.render(w, r, http.StatusUnprocessableEntity, "customers_form.html", data)
}

func (s *Server) handleCustomerEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Not found", "No such customer.")
		return
	}
	c, err := s.customers.EditForm(r.Context(), identityFrom(r.Context()), id)
	if errors.Is(err, domain.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound, "Not found", "No such customer.")
		return
	}
	data := s.formData("Edit Customer", "/customers/"+id.String()+"/edit", c, domain.CustomerInput{})
	if c != nil {
		data["Input"] = domain.InputFrom(c)
	}
	switch {
	case err == nil:
	case domain.IsForbidden(err):
		data["Disabled"] = true
		data["Message"] = err.Error()
		data["MessageClass"] = "err"
	default:
		s.serverError(w, r, err, "edit form")
		return
	}
	s.render(w, r, http.StatusOK, "customers_form.html", data)
}

func (s *Server) handleCustomerEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Not found", "No such customer.")
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, "form", http.StatusBadRequest)
		return
	}
	who := identityFrom(r.Context())
	version, _ := strconv.Atoi(r.FormValue("version"))
	up, err := uploadFromForm(r, "thePicture")
	if err != nil {
		http.Error(w, "upload", http.StatusBadRequest)
		return
	}
	req := usecase.UpdateRequest{
		ID:          id,
		Version:     version,
		Input:       inputFromForm(r),
		RemoveImage: checkbox(r.FormValue("chkRemoveImage")),
		Upload:      up,
	}
	c, err := s.customers.Update(r.Context(), who, req)
	if err == nil {
		http.Redirect(w, r, "/customers/"+id.String(), http.StatusFound)
		return
	}

	action := "/customers/" + id.String() + "/edit"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound, "Not found", msgGone)
	case domain.IsForbidden(err):
		data := s.formData("Edit Customer", action, c, domain.InputFrom(c))
		data["Disabled"] = true
		data["Message"] = err.Error()
		data["MessageClass"] = "err"
		s.render(w, r, http.StatusForbidden, "customers_form.html", data)
	case errors.Is(err, domain.ErrStaleVersion):
		fresh, ferr := s.customers.Get(r.Context(), id, domain.LoadPhoto)
		if ferr != nil {
			s.renderError(w, r, http.StatusNotFound, "Not found", msgGone)
			return
		}
		data := s.formData("Edit Customer", action, fresh, req.Input)
		data["Errors"] = map[string]string{"": msgStale}
		data["Current"] = currentValues(fresh, req.Input.Normalize())
		s.render(w, r, http.StatusConflict, "customers_form.html", data)
	default:
		if c != nil {
			c.Version = req.Version
		}
		data := s.formData("Edit Customer", action, c, req.Input)
		data["Errors"] = s.writeErrors(r, err)
		s.render(w, r, http.StatusUnprocessableEntity, "customers_form.html", data)
	}
}

// currentValues lists the stored value of every field where it differs from
// what the caller submitted.
func currentValues(c *domain.Customer, in domain.CustomerInput) map[string]string {
	db := domain.InputFrom(c)
	out := map[string]string{}
	add := func(field, stored, typed string) {
		if stored != typed {
			out[field] = stored
		}
	}
	add("FirstName", db.FirstName, in.FirstName)
	add("MiddleName", db.MiddleName, in.MiddleName)
	add("LastName", db.LastName, in.LastName)
	add("CompanyName", db.CompanyName, in.CompanyName)
	add("Phone", c.FormattedPhone(), domain.Customer{Phone: in.Phone}.FormattedPhone())
	add("CustomerCode", db.CustomerCode, in.CustomerCode)
	add("Email", db.Email, in.Email)
	return out
}

// writeErrors turns a failed save into messages keyed by form field; the
// empty key holds form level messages.
func (s *Server) writeErrors(r *http.Request, err error) map[string]string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		out := make(map[string]string, len(ve.Fields))
		for k, v := range ve.Fields {
			out[k] = v
		}
		return out
	}
	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		if ce.Field == "CustomerCode" {
			return map[string]string{"CustomerCode": msgDuplicate}
		}
		return map[string]string{"": msgSaveFailed}
	}
	log.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("save customer")
	return map[string]string{"": msgSaveFailed}
}

func (s *Server) handleCustomerDeleteForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Not found", "No such customer.")
		return
	}
	c, err := s.customers.Get(r.Context(), id, domain.LoadPlain)
	if errors.Is(err, domain.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound, "Not found", "No such customer.")
		return
	}
	if err != nil {
		s.serverError(w, r, err, "delete form")
		return
	}
	if err := domain.Authorize(domain.ActionDelete, c, identityFrom(r.Context())); err != nil {
		s.renderError(w, r, http.StatusForbidden, "Access denied", err.Error())
		return
	}
	s.render(w, r, http.StatusOK, "customers_delete.html", map[string]any{
		"Title":     "Delete Customer",
		"Customer":  c,
		"ReturnURL": safeReturn(r.URL.Query().Get("returnURL"), "/customers"),
	})
}

func (s *Server) handleCustomerDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Not found", "No such customer.")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", http.StatusBadRequest)
		return
	}
	back := safeReturn(r.FormValue("returnURL"), "/customers")
	c, err := s.customers.Delete(r.Context(), identityFrom(r.Context()), id)
	switch {
	case err == nil, errors.Is(err, domain.ErrNotFound):
		http.Redirect(w, r, back, http.StatusFound)
	case domain.IsForbidden(err):
		s.renderError(w, r, http.StatusForbidden, "Access denied", err.Error())
	case errors.Is(err, domain.ErrReferenced):
		s.render(w, r, http.StatusConflict, "customers_delete.html", map[string]any{
			"Title":        "Delete Customer",
			"Customer":     c,
			"ReturnURL":    back,
			"Message":      msgReferenced,
			"MessageClass": "err",
		})
	default:
		s.serverError(w, r, err, "delete customer")
	}
}

func (s *Server) handlePicture(which domain.CustomerLoad) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			http.NotFound(w, r)
			return
		}
		c, err := s.customers.Get(r.Context(), id, which)
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("load picture")
			http.Error(w, "picture", http.StatusInternalServerError)
			return
		}
		var content []byte
		var mime string
		switch {
		case which == domain.LoadPhoto && c.Photo != nil:
			content, mime = c.Photo.Content, c.Photo.MimeType
		case which == domain.LoadThumbnail && c.Thumbnail != nil:
			content, mime = c.Thumbnail.Content, c.Thumbnail.MimeType
		}
		if len(content) == 0 {
			http.NotFound(w, r)
			return
		}
		if mime == "" {
			mime = http.DetectContentType(content)
		}
		w.Header().Set("Content-Type", mime)
		w.Header().Set("Cache-Control", "private, max-age=300")
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		_, _ = w.Write(content)
	}
}

func (s *Server) handleCustomerExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort := domain.NewSortState(q.Get("sortField"), q.Get("sortDirection"))
	list, err := s.customers.Export(r.Context(), sort)
	if err != nil {
		s.serverError(w, r, err, "export customers")
		return
	}
	f, err := export.CustomersWorkbook(list)
	if err != nil {
		s.serverError(w, r, err, "build workbook")
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=customers.xlsx")
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("write workbook")
	}
}

func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxUpload)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

func inputFromForm(r *http.Request) domain.CustomerInput {
	return domain.CustomerInput{
		FirstName:    r.FormValue("FirstName"),
		MiddleName:   r.FormValue("MiddleName"),
		LastName:     r.FormValue("LastName"),
		CompanyName:  r.FormValue("CompanyName"),
		Phone:        r.FormValue("Phone"),
		CustomerCode: r.FormValue("CustomerCode"),
		Email:        r.FormValue("Email"),
	}
}

// uploadFromForm returns nil when no file was sent.
func uploadFromForm(r *http.Request, field string) (*domain.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUpload))
	if err != nil {
		return nil, err
	}
	ct := hdr.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return &domain.Upload{Filename: hdr.Filename, ContentType: ct, Data: data}, nil
}

func checkbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
