package httpserver

import (
	"bytes"
	"context"
	"html/template"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/catering/internal/adapters/resize"
	"github.com/phenrril/catering/internal/domain"
	"github.com/phenrril/catering/internal/usecase"
	"github.com/phenrril/catering/internal/views"
)

var (
	adminID = domain.Identity{Name: "admin@example.com", Roles: []domain.Role{domain.RoleAdmin}}
	superID = domain.Identity{Name: "super@example.com", Roles: []domain.Role{domain.RoleSupervisor}}
	staffID = domain.Identity{Name: "staff@example.com", Roles: []domain.Role{domain.RoleStaff}}
)

type harness struct {
	h         http.Handler
	sessions  *Sessions
	customers *memCustomers
	mail      *sentMail
	sizes     memPageSizes
}

func strPtr(s string) *string { return &s }

func customer(first, last, code string, email *string, by string) domain.Customer {
	return domain.Customer{
		ID: uuid.New(), FirstName: first, LastName: last, Phone: "5195551234",
		CustomerCode: code, Email: email, CreatedBy: by, Version: 1,
	}
}

func newHarness(t *testing.T, cs ...domain.Customer) *harness {
	t.Helper()
	tmpl, err := template.New("").Funcs(FuncMap()).ParseFS(views.FS, "*.html")
	require.NoError(t, err)

	hash, err := usecase.HashPassword("secret1")
	require.NoError(t, err)
	users := memUsers{"admin@example.com": {ID: uuid.New(), Email: "admin@example.com", PasswordHash: hash, Roles: "Admin"}}

	hs := &harness{
		sessions:  NewSessions("test-secret", time.Hour),
		customers: newMemCustomers(cs...),
		mail:      &sentMail{},
		sizes:     memPageSizes{},
	}
	hs.h = New(Options{
		Templates: tmpl,
		Customers: &usecase.CustomerUC{Customers: hs.customers, Pictures: &usecase.PictureUC{Resizer: resize.Resizer{}}},
		Notify:    &usecase.NotifyUC{Customers: hs.customers, Mailer: hs.mail, SiteName: "Test", SelfOnly: true},
		Auth:      &usecase.AuthUC{Users: users},
		Sessions:  hs.sessions,
		PageSizes: hs.sizes,
		SiteName:  "Test",
	})
	return hs
}

func (hs *harness) do(t *testing.T, who *domain.Identity, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if who != nil {
		tok, _, err := hs.sessions.Issue(*who)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: tok})
	}
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

func postForm(target string, v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func customerForm(code string) url.Values {
	return url.Values{
		"FirstName": {"Ann"}, "LastName": {"Lee"}, "Phone": {"519-555-1234"},
		"CustomerCode": {code}, "Email": {"ann@example.com"},
	}
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(t, nil, httptest.NewRequest(http.MethodGet, "/customers?page=2", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?returnURL="+url.QueryEscape("/customers?page=2"), rec.Header().Get("Location"))
}

func TestLoginSetsSessionAndReturns(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(t, nil, postForm("/login", url.Values{
		"email": {"Admin@Example.com"}, "password": {"secret1"}, "returnURL": {"/customers?page=2"},
	}))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/customers?page=2", rec.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	id, err := hs.sessions.Parse(session.Value)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", id.Name)
	assert.True(t, id.HasRole(domain.RoleAdmin))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(t, nil, postForm("/login", url.Values{"email": {"admin@example.com"}, "password": {"nope"}}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid login attempt.")
}

func TestListSortsAndRemembersPageSize(t *testing.T) {
	hs := newHarness(t,
		customer("Ann", "Lee", "A1000001", nil, ""),
		customer("Bob", "Adams", "B1000001", nil, ""),
		customer("Cid", "Zhu", "C1000001", nil, ""),
	)
	q := url.Values{"sortField": {"Customer"}, "sortDirection": {"asc"}, "actionButton": {"Customer"}, "pageSizeID": {"5"}, "page": {"3"}}
	rec := hs.do(t, &adminID, httptest.NewRequest(http.MethodGet, "/customers?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `name="sortDirection" value="desc"`)
	assert.Contains(t, body, "Page 1 of 1 (3 customers)")
	assert.Less(t, strings.Index(body, "Cid Zhu"), strings.Index(body, "Bob Adams"))
	assert.Equal(t, 5, hs.sizes["admin@example.com/customers"])

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "pageSize_customers" {
			found = true
			assert.Equal(t, "5", c.Value)
		}
	}
	assert.True(t, found)
}

func TestListClampsPastTheEnd(t *testing.T) {
	hs := newHarness(t, customer("Ann", "Lee", "A1000001", nil, ""))
	rec := hs.do(t, &adminID, httptest.NewRequest(http.MethodGet, "/customers?page=9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page 1 of 1 (1 customers)")
}

func TestCreateRedirectsToDetails(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(t, &adminID, postForm("/customers/create", customerForm("A1000001")))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/customers/"))

	list, _ := hs.customers.ListAll(context.Background(), domain.DefaultSort)
	require.Len(t, list, 1)
	assert.Equal(t, "5195551234", list[0].Phone)
	assert.Equal(t, "admin@example.com", list[0].CreatedBy)
}

func TestCreateDuplicateCodeShowsFieldMessage(t *testing.T) {
	hs := newHarness(t, customer("Bob", "Adams", "A1000001", nil, ""))
	rec := hs.do(t, &adminID, postForm("/customers/create", customerForm("A1000001")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "you cannot have duplicate Customer Codes")
	assert.Contains(t, rec.Body.String(), `value="Ann"`)
}

func TestCreateWithPictureStoresBothVariants(t *testing.T) {
	hs := newHarness(t)

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var pic bytes.Buffer
	require.NoError(t, png.Encode(&pic, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range customerForm("P1000001") {
		require.NoError(t, mw.WriteField(k, v[0]))
	}
	fw, err := mw.CreateFormFile("thePicture", "me.png")
	require.NoError(t, err)
	_, _ = fw.Write(pic.Bytes())
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/customers/create", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := hs.do(t, &adminID, req)
	require.Equal(t, http.StatusFound, rec.Code)

	list, _ := hs.customers.ListAll(context.Background(), domain.DefaultSort)
	require.Len(t, list, 1)
	id := list[0].ID

	photo := hs.do(t, &adminID, httptest.NewRequest(http.MethodGet, "/customers/"+id.String()+"/photo", nil))
	require.Equal(t, http.StatusOK, photo.Code)
	assert.Equal(t, "image/jpeg", photo.Header().Get("Content-Type"))
	assert.NotEmpty(t, photo.Body.Bytes())

	thumb := hs.do(t, &adminID, httptest.NewRequest(http.MethodGet, "/customers/"+id.String()+"/thumbnail", nil))
	assert.Equal(t, http.StatusOK, thumb.Code)
}

func TestPictureMissingIs404(t *testing.T) {
	c := customer("Ann", "Lee", "A1000001", nil, "")
	hs := newHarness(t, c)
	rec := hs.do(t, &adminID, httptest.NewRequest(http.MethodGet, "/customers/"+c.ID.String()+"/photo", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaffCannotEditOthersCustomer(t *testing.T) {
	c := customer("Ann", "Lee", "A1000001", nil, "someone@example.com")
	hs := newHarness(t, c)

	rec := hs.do(t, &staffID, httptest.NewRequest(http.MethodGet, "/customers/"+c.ID.String()+"/edit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You cannot edit Ann Lee because you did not enter them into the system.")
	assert.Contains(t, rec.Body.String(), "disabled")

	form := customerForm("A1000001")
	form.Set("version", "1")
	rec = hs.do(t, &staffID, postForm("/customers/"+c.ID.String()+"/edit", form))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEditWithStaleVersionKeepsTypedValues(t *testing.T) {
	c := customer("Ann", "Lee", "A1000001", nil, "")
	c.CompanyName = "Stored Co"
	c.Version = 3
	hs := newHarness(t, c)

	form := customerForm("A1000001")
	form.Set("FirstName", "Anne")
	form.Set("CompanyName", "Typed Co")
	form.Set("version", "2")
	rec := hs.do(t, &adminID, postForm("/customers/"+c.ID.String()+"/edit", form))
	require.Equal(t, http.StatusConflict, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "modified by another user")
	assert.Contains(t, body, `name="version" value="3"`)
	assert.Contains(t, body, `value="Anne"`)
	assert.Contains(t, body, `value="Typed Co"`)
	assert.Contains(t, body, "Current value: Ann<")
	assert.Contains(t, body, "Current value: Stored Co")
	assert.NotContains(t, body, "Current value: Lee")

	stored, _ := hs.customers.FindByID(context.Background(), c.ID, domain.LoadPlain)
	assert.Equal(t, "Ann", stored.FirstName)

	form.Set("version", "3")
	rec = hs.do(t, &adminID, postForm("/customers/"+c.ID.String()+"/edit", form))
	assert.Equal(t, http.StatusFound, rec.Code)
	got, _ := hs.customers.FindByID(context.Background(), c.ID, domain.LoadPlain)
	assert.Equal(t, "Anne", got.FirstName)
	assert.Equal(t, "Typed Co", got.CompanyName)
	assert.Equal(t, 4, got.Version)
}

func TestEditValidationKeepsSubmittedVersion(t *testing.T) {
	c := customer("Ann", "Lee", "A1000001", nil, "")
	hs := newHarness(t, c)
	form := customerForm("A1000001")
	form.Set("Phone", "12")
	form.Set("version", "1")
	rec := hs.do(t, &adminID, postForm("/customers/"+c.ID.String()+"/edit", form))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="version" value="1"`)
}

func TestDeleteRules(t *testing.T) {
	booked := customer("Ann", "Lee", "A1000001", nil, "")
	free := customer("Bob", "Adams", "B1000001", nil, "")
	hs := newHarness(t, booked, free)
	hs.customers.referenced[booked.ID] = true

	rec := hs.do(t, &superID, postForm("/customers/"+free.ID.String()+"/delete", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = hs.do(t, &adminID, postForm("/customers/"+booked.ID.String()+"/delete", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot delete a Customer that has a function")

	rec = hs.do(t, &adminID, postForm("/customers/"+free.ID.String()+"/delete", url.Values{"returnURL": {"/customers?page=2"}}))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/customers?page=2", rec.Header().Get("Location"))

	rec = hs.do(t, &adminID, postForm("/customers/"+free.ID.String()+"/delete", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestNotifyOneIsSelfOnly(t *testing.T) {
	other := customer("Ann", "Lee", "A1000001", strPtr("ann@example.com"), "")
	self := customer("Sam", "Staff", "S1000001", strPtr("staff@example.com"), "")
	hs := newHarness(t, other, self)

	form := url.Values{"customerID": {other.ID.String()}, "Subject": {"Hi"}, "emailContent": {"Menu"}}
	rec := hs.do(t, &staffID, postForm("/customers/notify/one", form))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "you can only send an email to yourself")
	assert.Contains(t, rec.Body.String(), ">Menu</textarea>")

	form.Set("customerID", self.ID.String())
	rec = hs.do(t, &staffID, postForm("/customers/notify/one", form))
	assert.Contains(t, rec.Body.String(), "Message sent to Customer")
	assert.Equal(t, []string{"staff@example.com"}, hs.mail.to)
}

func TestNotifyManyCountsDelivered(t *testing.T) {
	a := customer("Ann", "Lee", "A1000001", strPtr("ann@example.com"), "")
	b := customer("Sam", "Staff", "S1000001", strPtr("staff@example.com"), "")
	hs := newHarness(t, a, b)

	form := url.Values{"selectedOptions": {a.ID.String(), b.ID.String()}, "Subject": {"Hi"}, "emailContent": {"Menu"}}
	rec := hs.do(t, &staffID, postForm("/customers/notify/many", form))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Message sent to 1 Customer out of the 2 Customers selected.")
	assert.Equal(t, []string{"staff@example.com"}, hs.mail.to)
}

func TestExportIsWorkbook(t *testing.T) {
	hs := newHarness(t, customer("Ann", "Lee", "A1000001", nil, ""))
	rec := hs.do(t, &adminID, httptest.NewRequest(http.MethodGet, "/customers/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestHealthz(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(t, nil, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSessionRejectsForeignSecret(t *testing.T) {
	tok, _, err := NewSessions("other", time.Hour).Issue(adminID)
	require.NoError(t, err)
	_, err = NewSessions("test-secret", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestSafeReturn(t *testing.T) {
	cases := map[string]string{
		"/customers?page=2":    "/customers?page=2",
		"":                     "/x",
		"https://evil.example": "/x",
		"//evil.example":       "/x",
		`/\evil.example`:       "/x",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeReturn(in, "/x"), in)
	}
}

func TestMoney(t *testing.T) {
	money := FuncMap()["money"].(func(float64) string)
	assert.Equal(t, "$1,234,567.50", money(1234567.5))
	assert.Equal(t, "$12.00", money(12))
	assert.Equal(t, "-$1,000.00", money(-1000))
}
