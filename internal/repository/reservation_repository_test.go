package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-platform/internal/db"
	"github.com/Leganyst/reservation-platform/internal/model"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	gdb, err := db.NewInMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormStore(gdb)
}

func seedResource(t *testing.T, s *GormStore) (*model.User, *model.Resource) {
	t.Helper()
	ctx := context.Background()
	owner := &model.User{Email: "owner@example.com"}
	if err := s.Users().Create(ctx, owner); err != nil {
		t.Fatalf("create user: %v", err)
	}
	res := &model.Resource{OwnerID: owner.ID, Name: "Salle_1", Type: "room"}
	if err := s.Resources().Create(ctx, res); err != nil {
		t.Fatalf("create resource: %v", err)
	}
	return owner, res
}

func TestFindBlocking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner, res := seedResource(t, s)
	t0 := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i, st := range []model.ReservationStatus{
		model.ReservationStatusPending,
		model.ReservationStatusConfirmed,
		model.ReservationStatusRejected,
		model.ReservationStatusCanceled,
	} {
		r := &model.Reservation{
			ResourceID:  res.ID,
			RequesterID: owner.ID,
			StartsAt:    t0.Add(time.Duration(i) * time.Hour),
			EndsAt:      t0.Add(time.Duration(i+1) * time.Hour),
			Status:      st,
		}
		if err := s.Reservations().Create(ctx, r); err != nil {
			t.Fatalf("create reservation: %v", err)
		}
		ids = append(ids, r.ID)
	}

	got, err := s.Reservations().FindBlocking(ctx, res.ID, nil)
	if err != nil {
		t.Fatalf("FindBlocking: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[0] || got[1].ID != ids[1] {
		t.Fatalf("expected pending and confirmed ordered by start, got %+v", got)
	}

	got, err = s.Reservations().FindBlocking(ctx, res.ID, &ids[0])
	if err != nil {
		t.Fatalf("FindBlocking exclude: %v", err)
	}
	if len(got) != 1 || got[0].ID != ids[1] {
		t.Fatalf("excluded id must be skipped, got %+v", got)
	}

	if got, _ := s.Reservations().FindBlocking(ctx, uuid.New(), nil); len(got) != 0 {
		t.Fatalf("other resource must have no reservations, got %d", len(got))
	}
}

func TestUpdateStatus_Missing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Reservations().UpdateStatus(context.Background(), uuid.New(), model.ReservationStatusConfirmed)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestWithinTx_RollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx Tx) error {
		if err := tx.Users().Create(ctx, &model.User{Email: "ghost@example.com"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	n, err := s.Users().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("rolled back insert must not be visible, got %d users", n)
	}
}

func TestLikePattern(t *testing.T) {
	cases := map[string]string{
		"Salle":   "%salle%",
		"50%":     `%50\%%`,
		"a_b":     `%a\_b%`,
		`c:\path`: `%c:\\path%`,
	}
	for in, want := range cases {
		if got := likePattern(in); got != want {
			t.Fatalf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListByOwner_SearchIsLiteral(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner, res := seedResource(t, s)
	other := &model.Resource{OwnerID: owner.ID, Name: "Salle 1", Type: "room"}
	if err := s.Resources().Create(ctx, other); err != nil {
		t.Fatalf("create resource: %v", err)
	}

	t0 := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	for _, rid := range []uuid.UUID{res.ID, other.ID} {
		r := &model.Reservation{ResourceID: rid, RequesterID: owner.ID, StartsAt: t0, EndsAt: t0.Add(time.Hour), Status: model.ReservationStatusPending}
		if err := s.Reservations().Create(ctx, r); err != nil {
			t.Fatalf("create reservation: %v", err)
		}
	}

	items, total, err := s.Reservations().ListByOwner(ctx, owner.ID, ReservationFilter{Search: "salle_"})
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ResourceID != res.ID {
		t.Fatalf("underscore must match literally, got total=%d items=%+v", total, items)
	}
	if items[0].Resource == nil || items[0].Resource.Owner == nil {
		t.Fatalf("list must preload resource owner")
	}
}
