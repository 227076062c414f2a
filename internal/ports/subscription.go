package ports

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("subscription not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SubscriptionRecord is one user's subscription state. UID is the Telegram
// user id kept as text to avoid precision loss in JSON clients. A nil Expiry
// means the user was never subscribed.
type SubscriptionRecord struct {
	UID    string     `json:"uid"`
	Expiry *time.Time `json:"expiry"`
	Note   string     `json:"note"`
}

// RecordView is the wire shape of a record: expiry normalized to an RFC3339
// string or null.
type RecordView struct {
	UID    string  `json:"uid"`
	Expiry *string `json:"expiry"`
	Note   string  `json:"note"`
}

type Status struct {
	Active   bool `json:"active"`
	DaysLeft int  `json:"days_left"`
}

type Store interface {
	List(ctx context.Context) ([]SubscriptionRecord, error)
	Get(ctx context.Context, uid string) (*SubscriptionRecord, error)

	// UpsertExpiry creates the record if absent and always sets expiry.
	// The note is set only when non-nil; on creation it defaults to "".
	UpsertExpiry(ctx context.Context, uid string, expiry time.Time, note *string) error

	UpdateExpiry(ctx context.Context, uid string, expiry time.Time) error
	UpdateNote(ctx context.Context, uid string, note string) error
	Delete(ctx context.Context, uid string) error
}

type SubscriptionService interface {
	Grant(ctx context.Context, uid string, days int, note *string) error
	Extend(ctx context.Context, uid string, addDays int) error
	Reset(ctx context.Context, uid string) error
	Annotate(ctx context.Context, uid string, note string) error
	Remove(ctx context.Context, uid string) error
	Status(ctx context.Context, uid string) (Status, error)
	List(ctx context.Context) ([]RecordView, error)
}
