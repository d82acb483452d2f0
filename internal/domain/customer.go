package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Customer struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName    string    `gorm:"size:50;not null"`
	MiddleName   string    `gorm:"size:50"`
	LastName     string    `gorm:"size:100;not null;index:idx_customers_name,priority:1"`
	CompanyName  string    `gorm:"size:120"`
	Phone        string    `gorm:"size:10;not null"`
	CustomerCode string    `gorm:"size:8;not null;uniqueIndex:uq_customers_customer_code"`
	Email        *string   `gorm:"size:255;index"`
	CreatedBy    string    `gorm:"size:255"`
	UpdatedBy    string    `gorm:"size:255"`
	Version      int       `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Photo     *CustomerPhoto     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	Thumbnail *CustomerThumbnail `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	Functions []Function         `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
}

// FullName renders "First M. Last", dropping the middle initial when absent.
func (c Customer) FullName() string {
	name := c.FirstName
	if m := strings.TrimSpace(c.MiddleName); m != "" {
		r, _ := utf8.DecodeRuneInString(m)
		name += " " + string(unicode.ToUpper(r)) + "."
	}
	return name + " " + c.LastName
}

func (c Customer) Summary() string {
	if c.CompanyName == "" {
		return c.FullName()
	}
	return c.FullName() + " - " + c.CompanyName
}

func (c Customer) EmailSummary() string {
	return c.FullName() + " - " + c.EmailAddress()
}

func (c Customer) EmailAddress() string {
	if c.Email == nil {
		return ""
	}
	return *c.Email
}

func (c Customer) FormattedPhone() string {
	if len(c.Phone) != 10 {
		return c.Phone
	}
	return "(" + c.Phone[:3] + ") " + c.Phone[3:6] + "-" + c.Phone[6:]
}

func (c Customer) HasPicture() bool { return c.Photo != nil || c.Thumbnail != nil }

// CustomerInput is the allow-list of fields a create or edit form may set.
type CustomerInput struct {
	FirstName    string `validate:"required,max=50"`
	MiddleName   string `validate:"max=50"`
	LastName     string `validate:"required,max=100"`
	CompanyName  string `validate:"max=120"`
	Phone        string `validate:"required,vphone"`
	CustomerCode string `validate:"required,vcode"`
	Email        string `validate:"omitempty,email,max=255"`
}

func (in CustomerInput) Normalize() CustomerInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Phone = digitsOnly(in.Phone)
	in.CustomerCode = strings.ToUpper(strings.TrimSpace(in.CustomerCode))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

// ApplyTo copies the allow-listed fields onto c.
func (in CustomerInput) ApplyTo(c *Customer) {
	c.FirstName = in.FirstName
	c.MiddleName = in.MiddleName
	c.LastName = in.LastName
	c.CompanyName = in.CompanyName
	c.Phone = in.Phone
	c.CustomerCode = in.CustomerCode
	if in.Email == "" {
		c.Email = nil
	} else {
		e := in.Email
		c.Email = &e
	}
}

func InputFrom(c *Customer) CustomerInput {
	return CustomerInput{
		FirstName:    c.FirstName,
		MiddleName:   c.MiddleName,
		LastName:     c.LastName,
		CompanyName:  c.CompanyName,
		Phone:        c.Phone,
		CustomerCode: c.CustomerCode,
		Email:        c.EmailAddress(),
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
