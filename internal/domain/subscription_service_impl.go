package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abakusuz/paybot/internal/ports"
)

type subscriptionService struct {
	store ports.Store
	now   func() time.Time
}

func NewSubscriptionService(store ports.Store) ports.SubscriptionService {
	return &subscriptionService{
		store: store,
		now:   time.Now,
	}
}

// base returns the point an extension stacks onto: the current expiry when
// it is still in the future, otherwise now. Lapsed time is never banked.
func (s *subscriptionService) base(rec *ports.SubscriptionRecord, now time.Time) time.Time {
	if rec != nil && rec.Expiry != nil && rec.Expiry.After(now) {
		return *rec.Expiry
	}
	return now
}

func (s *subscriptionService) Grant(ctx context.Context, uid string, days int, note *string) error {
	if uid == "" {
		return fmt.Errorf("%w: uid is required", ports.ErrInvalidInput)
	}
	if days <= 0 {
		return fmt.Errorf("%w: days must be positive", ports.ErrInvalidInput)
	}

	now := s.now().UTC()
	rec, err := s.store.Get(ctx, uid)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return err
	}
	expiry := s.base(rec, now).AddDate(0, 0, days)
	return s.store.UpsertExpiry(ctx, uid, expiry, note)
}

func (s *subscriptionService) Extend(ctx context.Context, uid string, addDays int) error {
	if uid == "" {
		return fmt.Errorf("%w: uid is required", ports.ErrInvalidInput)
	}
	if addDays <= 0 {
		return fmt.Errorf("%w: add must be positive", ports.ErrInvalidInput)
	}

	rec, err := s.store.Get(ctx, uid)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	return s.store.UpdateExpiry(ctx, uid, s.base(rec, now).AddDate(0, 0, addDays))
}

func (s *subscriptionService) Reset(ctx context.Context, uid string) error {
	return s.store.UpdateExpiry(ctx, uid, s.now().UTC())
}

func (s *subscriptionService) Annotate(ctx context.Context, uid string, note string) error {
	return s.store.UpdateNote(ctx, uid, note)
}

func (s *subscriptionService) Remove(ctx context.Context, uid string) error {
	return s.store.Delete(ctx, uid)
}

func (s *subscriptionService) Status(ctx context.Context, uid string) (ports.Status, error) {
	rec, err := s.store.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ports.Status{}, nil
		}
		return ports.Status{}, err
	}

	now := s.now().UTC()
	if rec.Expiry == nil || !rec.Expiry.After(now) {
		return ports.Status{}, nil
	}
	return ports.Status{
		Active:   true,
		DaysLeft: int(rec.Expiry.Sub(now).Hours() / 24),
	}, nil
}

func (s *subscriptionService) List(ctx context.Context) ([]ports.RecordView, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ports.RecordView, 0, len(recs))
	for _, rec := range recs {
		v := ports.RecordView{UID: rec.UID, Note: rec.Note}
		if rec.Expiry != nil {
			iso := rec.Expiry.UTC().Format(time.RFC3339)
			v.Expiry = &iso
		}
		views = append(views, v)
	}
	return views, nil
}
