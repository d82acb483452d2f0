// Package fixtures loads demo accounts, customers and functions. Running it
// twice leaves the data unchanged apart from refreshed passwords.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/catering/internal/domain"
	"github.com/phenrril/catering/internal/usecase"
)

type CustomerStore interface {
	Exists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, c *domain.Customer) error
}

type FunctionStore interface {
	Create(ctx context.Context, f *domain.Function) error
	FunctionType(ctx context.Context, name string) (*domain.FunctionType, error)
	MealType(ctx context.Context, name string) (*domain.MealType, error)
}

type Seeder struct {
	Users     domain.UserRepo
	Customers CustomerStore
	Functions FunctionStore
	// Password is given to every demo account.
	Password string
}

type Result struct {
	Users     int
	Customers int
	Functions int
}

var users = []struct {
	email string
	roles string
}{
	{"admin@outlook.com", "Admin"},
	{"super@outlook.com", "Supervisor"},
	{"staff@outlook.com", "Staff"},
	{"security@outlook.com", "Security"},
	{"lead@outlook.com", "Staff,Supervisor"},
	{"user@outlook.com", ""},
}

type customerFixture struct {
	first, middle, last, company, phone, code, email string
	functions                                        []functionFixture
}

type functionFixture struct {
	name, kind, meal string
	daysOut, guests  int
	base, perPerson  float64
}

var customers = []customerFixture{
	{first: "Gregory", middle: "A", last: "House", company: "Princeton Plainsboro", phone: "4085551234", code: "C1000001", email: "ghouse@outlook.com",
		functions: []functionFixture{
			{name: "Diagnostics Team Dinner", kind: "Dinner", meal: "Plated", daysOut: 14, guests: 40, base: 500, perPerson: 42.5},
			{name: "Board Breakfast", kind: "Meeting", meal: "Continental", daysOut: 30, guests: 12, base: 150, perPerson: 18},
		}},
	{first: "Dana", last: "Scully", company: "FBI", phone: "2025550198", code: "C1000002", email: "dscully@outlook.com",
		functions: []functionFixture{
			{name: "Retirement Reception", kind: "Reception", meal: "Buffet", daysOut: 7, guests: 85, base: 1200, perPerson: 27},
		}},
	{first: "Jean-Luc", last: "Picard", company: "Starfleet", phone: "9055550147", code: "C1000003", email: "staff@outlook.com"},
	{first: "Leslie", middle: "B", last: "Knope", company: "Pawnee Parks", phone: "3175550111", code: "C1000004", email: "lknope@outlook.com",
		functions: []functionFixture{
			{name: "Harvest Festival Lunch", kind: "Lunch", meal: "Buffet", daysOut: 45, guests: 200, base: 2000, perPerson: 21},
		}},
	{first: "Ron", last: "Swanson", company: "Pawnee Parks", phone: "3175550112", code: "C1000005"},
	{first: "Olivia", last: "Benson", phone: "2125550133", code: "C1000006", email: "obenson@outlook.com"},
	{first: "Fox", middle: "W", last: "Mulder", company: "FBI", phone: "2025550199", code: "C1000007"},
	{first: "Kathryn", last: "Janeway", company: "Starfleet", phone: "9055550150", code: "C1000008", email: "kjaneway@outlook.com"},
}

func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	hash, err := usecase.HashPassword(s.Password)
	if err != nil {
		return res, err
	}
	for _, u := range users {
		if err := s.Users.Save(ctx, &domain.User{Email: u.email, PasswordHash: hash, Roles: u.roles}); err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.email, err)
		}
		res.Users++
	}

	start := time.Now().Truncate(24 * time.Hour).Add(18 * time.Hour)
	for _, cf := range customers {
		exists, err := s.Customers.Exists(ctx, cf.code)
		if err != nil {
			return res, err
		}
		if exists {
			continue
		}
		c := &domain.Customer{
			ID: uuid.New(), FirstName: cf.first, MiddleName: cf.middle, LastName: cf.last,
			CompanyName: cf.company, Phone: cf.phone, CustomerCode: cf.code,
			CreatedBy: "admin@outlook.com", UpdatedBy: "admin@outlook.com",
		}
		if cf.email != "" {
			e := cf.email
			c.Email = &e
		}
		if err := s.Customers.Create(ctx, c); err != nil {
			return res, fmt.Errorf("seed customer %s: %w", cf.code, err)
		}
		res.Customers++

		for _, ff := range cf.functions {
			if err := s.addFunction(ctx, c.ID, ff, start); err != nil {
				return res, fmt.Errorf("seed function %q: %w", ff.name, err)
			}
			res.Functions++
		}
	}
	log.Info().Int("users", res.Users).Int("customers", res.Customers).Int("functions", res.Functions).Msg("fixtures loaded")
	return res, nil
}

func (s *Seeder) addFunction(ctx context.Context, customerID uuid.UUID, ff functionFixture, start time.Time) error {
	ft, err := s.Functions.FunctionType(ctx, ff.kind)
	if err != nil {
		return err
	}
	mt, err := s.Functions.MealType(ctx, ff.meal)
	if err != nil {
		return err
	}
	begin := start.AddDate(0, 0, ff.daysOut)
	end := begin.Add(4 * time.Hour)
	return s.Functions.Create(ctx, &domain.Function{
		ID:               uuid.New(),
		Name:             ff.name,
		StartTime:        begin,
		EndTime:          &end,
		GuaranteedNumber: ff.guests,
		BaseCharge:       ff.base,
		PerPersonCharge:  ff.perPerson,
		CustomerID:       customerID,
		FunctionTypeID:   ft.ID,
		MealTypeID:       &mt.ID,
	})
}
