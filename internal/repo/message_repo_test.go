package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/iris-triage/internal/domain"
)

// test DB helper
func newMsgRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("msg_repo_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedMessage(t *testing.T, db *gorm.DB, id, user, session string, at time.Time) {
	t.Helper()
	m := &domain.ConversationMessage{
		ID: id, UserID: user, SessionID: session, Text: "msg " + id,
		Intent: domain.IntentGreeting, Language: domain.LangEnglish, Timestamp: at,
		Entities: []domain.Entity{{Text: "1500", Label: domain.EntityNumber, Confidence: 0.8, Start: 0, End: 4}},
	}
	if err := CreateMessage(context.Background(), db, m); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestCreateMessage_RoundTripsEntities(t *testing.T) {
	db := newMsgRepoDB(t, &domain.ConversationMessage{})
	seedMessage(t, db, "m1", "u1", "s1", time.Now().UTC())

	got, err := GetMessage(context.Background(), db, "m1")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.UserID != "u1" || len(got.Entities) != 1 || got.Entities[0].Label != domain.EntityNumber {
		t.Fatalf("unexpected message: %+v", got)
	}
	if _, err := GetMessage(context.Background(), db, "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCountMessages_Error_NoTable(t *testing.T) {
	db := newMsgRepoDB(t /* no migration */)
	if _, err := CountMessages(context.Background(), db, "u1", "s1"); err == nil {
		t.Fatalf("expected error due to missing messages table")
	}
}

func TestCountMessages_ScopedBySession(t *testing.T) {
	db := newMsgRepoDB(t, &domain.ConversationMessage{})
	now := time.Now().UTC()
	seedMessage(t, db, "m1", "u1", "s1", now)
	seedMessage(t, db, "m2", "u1", "s1", now)
	seedMessage(t, db, "m3", "u1", "s2", now)
	seedMessage(t, db, "m4", "u2", "s1", now)

	total, err := CountMessages(context.Background(), db, "u1", "s1")
	if err != nil {
		t.Fatalf("CountMessages error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2, got %d", total)
	}
}

func TestListMessagesPage_OrderAndPagination(t *testing.T) {
	db := newMsgRepoDB(t, &domain.ConversationMessage{})

	base := time.Date(2025, 7, 1, 11, 0, 0, 0, time.UTC)
	// insert out of order on purpose
	for _, i := range []int{3, 1, 5, 2, 4} {
		seedMessage(t, db, string(rune('a'+i-1)), "u1", "s3", base.Add(time.Duration(i)*time.Second))
	}

	out, err := ListMessagesPage(context.Background(), db, "u1", "s3", 1, 2)
	if err != nil {
		t.Fatalf("ListMessagesPage error: %v", err)
	}
	if len(out) != 2 || out[0].ID != "b" || out[1].ID != "c" {
		t.Fatalf("unexpected page slice: %+v", out)
	}

	empty, err := ListMessagesPage(context.Background(), db, "u1", "s3", 10, 2)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("past the end should be an empty slice, got %v (%v)", empty, err)
	}
}
