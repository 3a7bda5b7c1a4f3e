package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"indexchat/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.sqlite"))
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return st
}

func TestSQLiteStore_LatestSnapshotPicksMaxDate(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t)

	docs := []model.Snapshot{
		{"ID": "2003RealEstate", "Date": "2024-01-31", "Return1M": 0.01},
		{"ID": "2003RealEstate", "Date": "2024-03-31", "Return1M": 0.03},
		{"ID": "2003RealEstate", "Date": "2024-02-29", "Return1M": 0.02},
		{"ID": "1999Tech", "Date": "2025-01-31", "Return1M": 0.09},
	}
	n, err := st.InsertSnapshots(ctx, docs)
	if err != nil {
		t.Fatalf("InsertSnapshots failed: %v", err)
	}
	if n != len(docs) {
		t.Fatalf("unexpected insert count: got %d want %d", n, len(docs))
	}

	want := model.Snapshot{"ID": "2003RealEstate", "Date": "2024-03-31", "Return1M": 0.03}
	for i := 0; i < 3; i++ {
		got, err := st.LatestSnapshot(ctx, "2003RealEstate")
		if err != nil {
			t.Fatalf("LatestSnapshot failed: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("call %d: unexpected snapshot: %#v", i, got)
		}
	}
}

func TestSQLiteStore_LatestSnapshotNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	if _, err := st.InsertSnapshots(context.Background(), []model.Snapshot{{"ID": "other", "Date": "2024-01-01"}}); err != nil {
		t.Fatalf("InsertSnapshots failed: %v", err)
	}

	_, err := st.LatestSnapshot(context.Background(), "missing-id")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_InternalIDStripped(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t)

	_, err := st.InsertSnapshots(ctx, []model.Snapshot{{
		"_id":  map[string]any{"$oid": "65f0c0ffee"},
		"ID":   "2003RealEstate",
		"Date": "2024-01-31",
	}})
	if err != nil {
		t.Fatalf("InsertSnapshots failed: %v", err)
	}

	got, err := st.LatestSnapshot(ctx, "2003RealEstate")
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if _, ok := got["_id"]; ok {
		t.Fatalf("expected _id to be stripped: %#v", got)
	}
}

func TestSQLiteStore_SameDateLaterInsertWins(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t)

	if _, err := st.InsertSnapshots(ctx, []model.Snapshot{{"ID": "X", "Date": "2024-01-31", "v": "first"}}); err != nil {
		t.Fatalf("InsertSnapshots failed: %v", err)
	}
	if _, err := st.InsertSnapshots(ctx, []model.Snapshot{{"ID": "X", "Date": "2024-01-31", "v": "second"}}); err != nil {
		t.Fatalf("InsertSnapshots failed: %v", err)
	}

	got, err := st.LatestSnapshot(ctx, "X")
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if got["v"] != "second" {
		t.Fatalf("expected most recent insert to win ties, got %#v", got)
	}
}

func TestSQLiteStore_InsertEmptyIsNoop(t *testing.T) {
	st := NewSQLiteStore(filepath.Join(t.TempDir(), "unused.sqlite"))
	defer func() { _ = st.Close() }()

	n, err := st.InsertSnapshots(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("expected no-op insert, got n=%d err=%v", n, err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "redis"}); err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, Options{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "open.sqlite")})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = st.Close() }()
	if err := st.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
