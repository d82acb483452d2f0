package domain

import "strings"

type SortField string

const (
	SortCustomer SortField = "Customer"
	SortCompany  SortField = "Company Name"
	SortPhone    SortField = "Phone"
	SortCode     SortField = "Customer Code"
)

// SortFields lists the recognised column headings in display order.
var SortFields = []SortField{SortCustomer, SortCompany, SortPhone, SortCode}

func ParseSortField(token string) (SortField, bool) {
	for _, f := range SortFields {
		if string(f) == token {
			return f, true
		}
	}
	return "", false
}

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

func (d SortDirection) Flip() SortDirection {
	if d == Desc {
		return Asc
	}
	return Desc
}

type SortState struct {
	Field     SortField
	Direction SortDirection
}

var DefaultSort = SortState{Field: SortCustomer, Direction: Asc}

// NewSortState rebuilds the state round-tripped by the caller, falling back
// to the default for anything unrecognised.
func NewSortState(field, direction string) SortState {
	f, ok := ParseSortField(field)
	if !ok {
		f = DefaultSort.Field
	}
	return SortState{Field: f, Direction: ParseSortDirection(direction)}
}

// Apply folds a column-heading click into the state. The second result is
// true when a button was pressed and paging must restart at page 1.
func (s SortState) Apply(button string) (SortState, bool) {
	if button == "" {
		return s, false
	}
	f, ok := ParseSortField(button)
	if !ok {
		return s, true
	}
	if f == s.Field {
		return SortState{Field: f, Direction: s.Direction.Flip()}, true
	}
	return SortState{Field: f, Direction: Asc}, true
}

// OrderBy returns SQL order clauses; the customer sort is two-key and both
// keys share the direction.
func (s SortState) OrderBy() []string {
	dir := string(s.Direction)
	switch s.Field {
	case SortCompany:
		return []string{"company_name " + dir}
	case SortPhone:
		return []string{"phone " + dir}
	case SortCode:
		return []string{"customer_code " + dir}
	default:
		return []string{"last_name " + dir, "first_name " + dir}
	}
}

// Less is the in-memory twin of OrderBy: it orders two customers exactly as
// the SQL clauses do, for CustomerRepo implementations that hold rows in
// memory rather than in postgres.
func (s SortState) Less(a, b Customer) bool {
	var c int
	switch s.Field {
	case SortCompany:
		c = strings.Compare(a.CompanyName, b.CompanyName)
	case SortPhone:
		c = strings.Compare(a.Phone, b.Phone)
	case SortCode:
		c = strings.Compare(a.CustomerCode, b.CustomerCode)
	default:
		c = strings.Compare(a.LastName, b.LastName)
		if c == 0 {
			c = strings.Compare(a.FirstName, b.FirstName)
		}
	}
	if s.Direction == Desc {
		return c > 0
	}
	return c < 0
}

var PageSizeOptions = []int{5, 10, 20, 50, 100}

const DefaultPageSize = 10

func ValidPageSize(n int) bool {
	for _, o := range PageSizeOptions {
		if o == n {
			return true
		}
	}
	return false
}

type PageInfo struct {
	Page       int
	PageSize   int
	TotalCount int64
	TotalPages int
}

func (p PageInfo) Offset() int { return (p.Page - 1) * p.PageSize }

func (p PageInfo) HasPrevious() bool { return p.Page > 1 }

func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// Paging clamps a requested page into [1, TotalPages]. An empty collection
// yields page 1 of 0.
func Paging(total int64, page, size int) PageInfo {
	if size < 1 {
		size = DefaultPageSize
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}
	if pages == 0 {
		page = 1
	}
	return PageInfo{Page: page, PageSize: size, TotalCount: total, TotalPages: pages}
}

type CustomerQuery struct {
	Sort   SortState
	Offset int
	Limit  int
}

type CustomerPage struct {
	Items []Customer
	PageInfo
	Sort SortState
}
