package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abakusuz/paybot/internal/ports"
)

// memStore is an in-memory Store used to exercise the service arithmetic
// without touching disk.
type memStore struct {
	recs map[string]ports.SubscriptionRecord
}

func newMemStore() *memStore {
	return &memStore{recs: map[string]ports.SubscriptionRecord{}}
}

func (s *memStore) List(ctx context.Context) ([]ports.SubscriptionRecord, error) {
	out := make([]ports.SubscriptionRecord, 0, len(s.recs))
	for _, r := range s.recs {
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) Get(ctx context.Context, uid string) (*ports.SubscriptionRecord, error) {
	r, ok := s.recs[uid]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := r
	return &cp, nil
}

func (s *memStore) UpsertExpiry(ctx context.Context, uid string, expiry time.Time, note *string) error {
	r := s.recs[uid]
	r.UID = uid
	e := expiry
	r.Expiry = &e
	if note != nil {
		r.Note = *note
	}
	s.recs[uid] = r
	return nil
}

func (s *memStore) UpdateExpiry(ctx context.Context, uid string, expiry time.Time) error {
	r, ok := s.recs[uid]
	if !ok {
		return ports.ErrNotFound
	}
	e := expiry
	r.Expiry = &e
	s.recs[uid] = r
	return nil
}

func (s *memStore) UpdateNote(ctx context.Context, uid string, note string) error {
	r, ok := s.recs[uid]
	if !ok {
		return ports.ErrNotFound
	}
	r.Note = note
	s.recs[uid] = r
	return nil
}

func (s *memStore) Delete(ctx context.Context, uid string) error {
	if _, ok := s.recs[uid]; !ok {
		return ports.ErrNotFound
	}
	delete(s.recs, uid)
	return nil
}

func newTestService(now time.Time) (*subscriptionService, *memStore) {
	st := newMemStore()
	svc := NewSubscriptionService(st).(*subscriptionService)
	svc.now = func() time.Time { return now }
	return svc, st
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestStatusUnknownUser(t *testing.T) {
	svc, _ := newTestService(testNow)

	st, err := svc.Status(context.Background(), "999")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if st.Active || st.DaysLeft != 0 {
		t.Fatalf("unknown user should be inactive with 0 days, got %+v", st)
	}
}

func TestGrantThenStatus(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()

	if err := svc.Grant(ctx, "100", 30, nil); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}

	st, err := svc.Status(ctx, "100")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !st.Active {
		t.Fatal("expected active subscription after grant")
	}
	if st.DaysLeft != 29 && st.DaysLeft != 30 {
		t.Fatalf("days_left should be 29 or 30, got %d", st.DaysLeft)
	}
}

func TestExtendPreservesRemainder(t *testing.T) {
	svc, store := newTestService(testNow)
	ctx := context.Background()

	if err := svc.Grant(ctx, "100", 10, nil); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	first := *store.recs["100"].Expiry

	if err := svc.Extend(ctx, "100", 5); err != nil {
		t.Fatalf("Extend returned error: %v", err)
	}

	want := first.AddDate(0, 0, 5)
	got := *store.recs["100"].Expiry
	if !got.Equal(want) {
		t.Fatalf("extension should stack on the unexpired remainder: got %s want %s", got, want)
	}
}

func TestExtendAfterLapse(t *testing.T) {
	svc, store := newTestService(testNow)
	ctx := context.Background()

	lapsed := testNow.AddDate(0, 0, -10)
	store.recs["100"] = ports.SubscriptionRecord{UID: "100", Expiry: &lapsed}

	if err := svc.Extend(ctx, "100", 5); err != nil {
		t.Fatalf("Extend returned error: %v", err)
	}

	want := testNow.AddDate(0, 0, 5)
	got := *store.recs["100"].Expiry
	if !got.Equal(want) {
		t.Fatalf("lapsed time must not be banked: got %s want %s", got, want)
	}
}

func TestGrantStacksLikeExtend(t *testing.T) {
	svc, store := newTestService(testNow)
	ctx := context.Background()

	if err := svc.Grant(ctx, "100", 10, nil); err != nil {
		t.Fatalf("first Grant returned error: %v", err)
	}
	if err := svc.Grant(ctx, "100", 10, nil); err != nil {
		t.Fatalf("second Grant returned error: %v", err)
	}

	want := testNow.AddDate(0, 0, 20)
	got := *store.recs["100"].Expiry
	if !got.Equal(want) {
		t.Fatalf("repeated grant should stack: got %s want %s", got, want)
	}
}

func TestResetMakesInactive(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()

	if err := svc.Grant(ctx, "100", 30, nil); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if err := svc.Reset(ctx, "100"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	st, err := svc.Status(ctx, "100")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if st.Active || st.DaysLeft != 0 {
		t.Fatalf("reset user should be inactive with 0 days, got %+v", st)
	}

	// the record survives a reset
	if _, err := svc.Status(ctx, "100"); err != nil {
		t.Fatalf("record should remain queryable after reset: %v", err)
	}
}

func TestRemoveThenMutationsFail(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()

	if err := svc.Grant(ctx, "100", 30, nil); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if err := svc.Remove(ctx, "100"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}

	if err := svc.Extend(ctx, "100", 5); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Extend after delete: got %v, want ErrNotFound", err)
	}
	if err := svc.Reset(ctx, "100"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Reset after delete: got %v, want ErrNotFound", err)
	}
	if err := svc.Annotate(ctx, "100", "x"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Annotate after delete: got %v, want ErrNotFound", err)
	}
	if err := svc.Remove(ctx, "100"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Remove after delete: got %v, want ErrNotFound", err)
	}
}

func TestInputValidation(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"grant zero days", func() error { return svc.Grant(ctx, "100", 0, nil) }},
		{"grant negative days", func() error { return svc.Grant(ctx, "100", -5, nil) }},
		{"grant empty uid", func() error { return svc.Grant(ctx, "", 5, nil) }},
		{"extend zero days", func() error { return svc.Extend(ctx, "100", 0) }},
		{"extend empty uid", func() error { return svc.Extend(ctx, "", 5) }},
	}
	for _, tc := range cases {
		if err := tc.call(); !errors.Is(err, ports.ErrInvalidInput) {
			t.Fatalf("%s: got %v, want ErrInvalidInput", tc.name, err)
		}
	}
}

func TestAnnotateIdempotent(t *testing.T) {
	svc, store := newTestService(testNow)
	ctx := context.Background()

	if err := svc.Grant(ctx, "100", 30, nil); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.Annotate(ctx, "100", "paid via card"); err != nil {
			t.Fatalf("Annotate call %d returned error: %v", i+1, err)
		}
	}
	if got := store.recs["100"].Note; got != "paid via card" {
		t.Fatalf("note mismatch: got %q", got)
	}
}

func TestListNormalizesExpiry(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()

	note := "vip"
	if err := svc.Grant(ctx, "100", 30, &note); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if err := svc.Grant(ctx, "200", 7, nil); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}

	views, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 records, got %d", len(views))
	}
	for _, v := range views {
		if v.Expiry == nil {
			t.Fatalf("uid %s: expiry should be set", v.UID)
		}
		if _, err := time.Parse(time.RFC3339, *v.Expiry); err != nil {
			t.Fatalf("uid %s: expiry %q is not RFC3339: %v", v.UID, *v.Expiry, err)
		}
		switch v.UID {
		case "100":
			if v.Note != "vip" {
				t.Fatalf("uid 100 note mismatch: %q", v.Note)
			}
		case "200":
			if v.Note != "" {
				t.Fatalf("uid 200 note should default to empty, got %q", v.Note)
			}
		}
	}
}

func TestAdminScenario(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()

	if err := svc.Grant(ctx, "100", 30, nil); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	st, _ := svc.Status(ctx, "100")
	if st.DaysLeft != 29 && st.DaysLeft != 30 {
		t.Fatalf("after grant 30: days_left %d", st.DaysLeft)
	}

	if err := svc.Extend(ctx, "100", 10); err != nil {
		t.Fatalf("Extend returned error: %v", err)
	}
	st, _ = svc.Status(ctx, "100")
	if st.DaysLeft != 39 && st.DaysLeft != 40 {
		t.Fatalf("after extend 10: days_left %d", st.DaysLeft)
	}

	if err := svc.Reset(ctx, "100"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	st, _ = svc.Status(ctx, "100")
	if st.Active || st.DaysLeft != 0 {
		t.Fatalf("after reset: %+v", st)
	}

	if err := svc.Remove(ctx, "100"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := svc.Extend(ctx, "100", 5); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("extend after delete: got %v, want ErrNotFound", err)
	}
}
