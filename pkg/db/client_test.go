package db

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type archiveRow struct {
	ID     int
	Number string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&archiveRow{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	conn := newTestDB(t)
	client := &Client{conn: conn}
	ctx := context.Background()

	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&archiveRow{Number: "DEV-20250831-100000"}).Error
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var count int64
	if err := conn.Model(&archiveRow{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&archiveRow{Number: "DEV-20250831-110000"}).Error; err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected WithTx to surface the callback error")
	}
	if err := conn.Model(&archiveRow{}).Count(&count).Error; err != nil {
		t.Fatalf("count after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 row, got %d", count)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	conn := newTestDB(t)

	if err := conn.Create(&archiveRow{Number: "DEV-20250831-120000"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := conn.Create(&archiveRow{Number: "DEV-20250831-120000"}).Error
	if err == nil {
		t.Fatal("expected a duplicate-number insert to fail")
	}
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestPing(t *testing.T) {
	client := &Client{conn: newTestDB(t)}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
