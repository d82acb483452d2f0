package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	repo "github.com/phenrril/catering/internal/adapters/repo/postgres"
	"github.com/phenrril/catering/internal/config"
	"github.com/phenrril/catering/internal/fixtures"
)

func main() {
	password := flag.String("password", "Pa55w@rd", "password given to every demo account")
	flag.Parse()

	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.DSNString()), &gorm.Config{})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := repo.Migrate(db); err != nil {
		zlog.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s := &fixtures.Seeder{
		Users:     repo.NewUserRepo(db),
		Customers: repo.NewCustomerRepo(db),
		Functions: repo.NewFunctionRepo(db),
		Password:  *password,
	}
	if _, err := s.Run(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("seed failed")
	}
}
