package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"finCoach/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}, &database.ResumeRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, id string, userID uint) {
	t.Helper()
	rec := database.ResumeRecord{
		ID:       id,
		UserID:   userID,
		FileName: "resume.pdf",
		FileType: "application/pdf",
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func TestLocateExactMatch(t *testing.T) {
	db := newTestDB(t)
	const id = "aaaaaaaa-1111-4222-8333-444444444444"
	seedRecord(t, db, id, 1)

	record, err := NewLocator(db).Locate(context.Background(), id, 1)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if record.ID != id {
		t.Errorf("record.ID = %q, want %q", record.ID, id)
	}
}

func TestLocateOwnerMismatch(t *testing.T) {
	db := newTestDB(t)
	const id = "aaaaaaaa-1111-4222-8333-444444444444"
	seedRecord(t, db, id, 1)

	_, err := NewLocator(db).Locate(context.Background(), id, 2)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
}

func TestLocateInvalidIdentifier(t *testing.T) {
	db := newTestDB(t)
	cases := []string{
		"",
		"not-a-uuid",
		"aaaaaaaa-1111-7222-8333-444444444444", // version nibble out of range
		"aaaaaaaa-1111-4222-0333-444444444444", // variant nibble out of range
		"aaaaaaaa1111422283334444444444444444", // missing hyphens
	}
	for _, id := range cases {
		if _, err := NewLocator(db).Locate(context.Background(), id, 1); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("Locate(%q) err = %v, want ErrInvalidIdentifier", id, err)
		}
	}
}

func TestLocateFuzzyAccepted(t *testing.T) {
	db := newTestDB(t)
	// 与请求 ID 仅末位不同，相似度 35/36 ≈ 0.97，超过 0.9 应被替换接受。
	stored := "aaaaaaaa-1111-4222-8333-444444444443"
	seedRecord(t, db, stored, 1)

	requested := "aaaaaaaa-1111-4222-8333-444444444444"
	record, err := NewLocator(db).Locate(context.Background(), requested, 1)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if record.ID != stored {
		t.Errorf("record.ID = %q, want substituted %q", record.ID, stored)
	}
}

func TestLocateFuzzyRejectedBelowThreshold(t *testing.T) {
	db := newTestDB(t)
	// 同前缀段但整体差异大，相似度远低于 0.9。
	seedRecord(t, db, "aaaaaaaa-9999-4999-8999-999999999999", 1)

	requested := "aaaaaaaa-1111-4222-8333-444444444444"
	_, err := NewLocator(db).Locate(context.Background(), requested, 1)
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestLocateFuzzyStillChecksOwner(t *testing.T) {
	db := newTestDB(t)
	seedRecord(t, db, "aaaaaaaa-1111-4222-8333-444444444443", 1)

	requested := "aaaaaaaa-1111-4222-8333-444444444444"
	_, err := NewLocator(db).Locate(context.Background(), requested, 2)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
}

func TestLocateNoCandidates(t *testing.T) {
	db := newTestDB(t)
	seedRecord(t, db, "bbbbbbbb-1111-4222-8333-444444444444", 1)

	_, err := NewLocator(db).Locate(context.Background(), "aaaaaaaa-1111-4222-8333-444444444444", 1)
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestLocateDuplicateRecords(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// 故意建一张没有主键约束的表来模拟数据损坏（主键正常时插不进重复 ID）。
	if err := db.Exec(`CREATE TABLE resume_records (
		id text, user_id integer, file_name text, file_url text,
		file_type text, file_size_bytes integer, object_key text,
		created_at datetime, updated_at datetime
	)`).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}

	const id = "aaaaaaaa-1111-4222-8333-444444444444"
	for i := 0; i < 2; i++ {
		if err := db.Exec(
			"INSERT INTO resume_records (id, user_id, file_name) VALUES (?, ?, ?)",
			id, 1, "resume.pdf",
		).Error; err != nil {
			t.Fatalf("insert row: %v", err)
		}
	}

	_, err = NewLocator(db).Locate(context.Background(), id, 1)
	if !errors.Is(err, ErrDuplicateRecord) {
		t.Fatalf("err = %v, want ErrDuplicateRecord", err)
	}
}
