package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func openLogged(t *testing.T, buf *bytes.Buffer, slow time.Duration) *gorm.DB {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: buf, Level: logger.ParseLevel("debug")})
	dsn := fmt.Sprintf("file:querylog_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newQueryLogger(logg, slow)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	buf.Reset()
	return conn
}

func TestQueryLoggerReportsSlowStatements(t *testing.T) {
	buf := &bytes.Buffer{}
	conn := openLogged(t, buf, time.Nanosecond)

	if err := conn.Create(&testModel{Code: "slow"}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(buf.String(), "slow query") || !strings.Contains(buf.String(), "INSERT INTO") {
		t.Fatalf("expected slow query entry, got %s", buf.String())
	}
}

func TestQueryLoggerIgnoresRecordNotFound(t *testing.T) {
	buf := &bytes.Buffer{}
	conn := openLogged(t, buf, time.Hour)

	var row testModel
	err := conn.Where("code = ?", "missing").First(&row).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if strings.Contains(buf.String(), "query failed") {
		t.Fatalf("record not found must not be logged as a failure: %s", buf.String())
	}
}

func TestQueryLoggerReportsFailures(t *testing.T) {
	buf := &bytes.Buffer{}
	conn := openLogged(t, buf, time.Hour)

	if err := conn.WithContext(context.Background()).Exec("SELECT * FROM no_such_table").Error; err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(buf.String(), "query failed") {
		t.Fatalf("expected failure entry, got %s", buf.String())
	}
}
