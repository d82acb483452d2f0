package httpserver

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/phenrril/catering/internal/domain"
)

type memCustomers struct {
	mu         sync.Mutex
	rows       map[uuid.UUID]domain.Customer
	referenced map[uuid.UUID]bool
}

func newMemCustomers(cs ...domain.Customer) *memCustomers {
	m := &memCustomers{rows: map[uuid.UUID]domain.Customer{}, referenced: map[uuid.UUID]bool{}}
	for _, c := range cs {
		if c.Version == 0 {
			c.Version = 1
		}
		m.rows[c.ID] = c
	}
	return m
}

func (m *memCustomers) all(s domain.SortState) []domain.Customer {
	out := make([]domain.Customer, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return s.Less(out[i], out[j]) })
	return out
}

func (m *memCustomers) List(_ context.Context, q domain.CustomerQuery) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.all(q.Sort)
	if q.Offset >= len(all) {
		return nil, nil
	}
	end := min(q.Offset+q.Limit, len(all))
	return all[q.Offset:end], nil
}

func (m *memCustomers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memCustomers) ListAll(_ context.Context, s domain.SortState) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.all(s), nil
}

func (m *memCustomers) FindByID(_ context.Context, id uuid.UUID, load domain.CustomerLoad) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if load&domain.LoadPhoto == 0 {
		c.Photo = nil
	}
	if load&domain.LoadThumbnail == 0 {
		c.Thumbnail = nil
	}
	return &c, nil
}

func (m *memCustomers) taken(code string, except uuid.UUID) bool {
	for id, c := range m.rows {
		if id != except && c.CustomerCode == code {
			return true
		}
	}
	return false
}

func (m *memCustomers) Create(_ context.Context, c *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(c.CustomerCode, c.ID) {
		return &domain.ConflictError{Field: "CustomerCode", Value: c.CustomerCode}
	}
	c.Version = 1
	m.rows[c.ID] = *c
	return nil
}

func (m *memCustomers) Update(_ context.Context, c *domain.Customer, expected int, op domain.PictureOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expected {
		return domain.ErrStaleVersion
	}
	if m.taken(c.CustomerCode, c.ID) {
		return &domain.ConflictError{Field: "CustomerCode", Value: c.CustomerCode}
	}
	next := *c
	if op == domain.PictureKeep {
		next.Photo, next.Thumbnail = cur.Photo, cur.Thumbnail
	}
	next.Version = expected + 1
	c.Version = next.Version
	m.rows[c.ID] = next
	return nil
}

func (m *memCustomers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	if m.referenced[id] {
		return domain.ErrReferenced
	}
	delete(m.rows, id)
	return nil
}

func (m *memCustomers) ListAddressable(ctx context.Context) ([]domain.Customer, error) {
	all, _ := m.ListAll(ctx, domain.DefaultSort)
	var out []domain.Customer
	for _, c := range all {
		if c.EmailAddress() != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCustomers) FindAddressable(ctx context.Context, ids []uuid.UUID) ([]domain.Customer, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	list, _ := m.ListAddressable(ctx)
	var out []domain.Customer
	for _, c := range list {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

type memUsers map[string]domain.User

func (u memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	usr, ok := u[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &usr, nil
}

func (u memUsers) Save(_ context.Context, usr *domain.User) error {
	u[usr.Email] = *usr
	return nil
}

type memPageSizes map[string]int

func (p memPageSizes) PageSize(_ context.Context, user, list string) (int, bool) {
	n, ok := p[user+"/"+list]
	return n, ok
}

func (p memPageSizes) SetPageSize(_ context.Context, user, list string, n int) error {
	p[user+"/"+list] = n
	return nil
}

// sentMail records what reached the transport.
type sentMail struct {
	mu   sync.Mutex
	to   []string
	fail error
}

func (s *sentMail) SendOne(_ context.Context, _, address, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.to = append(s.to, address)
	return nil
}

func (s *sentMail) SendMany(_ context.Context, msg domain.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	for _, r := range msg.To {
		s.to = append(s.to, r.Address)
	}
	return nil
}
