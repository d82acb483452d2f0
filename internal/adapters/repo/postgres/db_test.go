package postgres

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// testDB opens a connection bound to a throwaway schema. Tests are skipped
// when no database is configured.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load("../../../../.env")
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set")
	}
	base := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		os.Getenv("DB_HOST"), getenv("DB_PORT", "5432"), getenv("DB_USER", "postgres"),
		getenv("DB_PASSWORD", "postgres"), getenv("DB_NAME", "catering"), getenv("DB_SSLMODE", "disable"))
	schema := fmt.Sprintf("test_catering_%d", time.Now().UnixNano()%1000000)

	setup, err := gorm.Open(postgres.Open(base), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	setup.Exec("CREATE SCHEMA IF NOT EXISTS " + schema)

	db, err := gorm.Open(postgres.Open(base+" search_path="+schema), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("connect schema: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		setup.Exec("DROP SCHEMA IF EXISTS " + schema + " CASCADE")
		if sqlDB, err := setup.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
