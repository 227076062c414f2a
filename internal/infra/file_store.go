package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/abakusuz/paybot/internal/ports"
	"go.uber.org/zap"
)

// fileRecord is the on-disk value shape; the document is one JSON object
// keyed by uid.
type fileRecord struct {
	Expiry *string `json:"expiry"`
	Note   string  `json:"note"`
}

// FileStore keeps every record in a single JSON document. Each mutation
// reads the whole document, changes one entry and rewrites the file, with no
// locking: two concurrent writers on the same uid can lose one update. That
// matches the file backend's documented guarantees; per-row atomicity is the
// relational backend's job.
type FileStore struct {
	path string
	log  *zap.SugaredLogger
}

func NewFileStore(path string, log *zap.SugaredLogger) *FileStore {
	return &FileStore{path: path, log: log}
}

func (s *FileStore) load() (map[string]fileRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		// first run: empty store, not an error
		return map[string]fileRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	recs := map[string]fileRecord{}
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return recs, nil
}

func (s *FileStore) save(recs map[string]fileRecord) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// parseExpiry tolerates unparsable stored timestamps: they read back as
// "never subscribed" instead of failing the whole read path.
func (s *FileStore) parseExpiry(uid string, raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		s.log.Warnw("stored expiry is unparsable, treating as unset", "uid", uid, "expiry", *raw)
		return nil
	}
	u := t.UTC()
	return &u
}

func formatExpiry(t time.Time) *string {
	iso := t.UTC().Format(time.RFC3339)
	return &iso
}

func (s *FileStore) List(ctx context.Context) ([]ports.SubscriptionRecord, error) {
	recs, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]ports.SubscriptionRecord, 0, len(recs))
	for uid, r := range recs {
		out = append(out, ports.SubscriptionRecord{
			UID:    uid,
			Expiry: s.parseExpiry(uid, r.Expiry),
			Note:   r.Note,
		})
	}
	return out, nil
}

func (s *FileStore) Get(ctx context.Context, uid string) (*ports.SubscriptionRecord, error) {
	recs, err := s.load()
	if err != nil {
		return nil, err
	}
	r, ok := recs[uid]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &ports.SubscriptionRecord{
		UID:    uid,
		Expiry: s.parseExpiry(uid, r.Expiry),
		Note:   r.Note,
	}, nil
}

func (s *FileStore) UpsertExpiry(ctx context.Context, uid string, expiry time.Time, note *string) error {
	recs, err := s.load()
	if err != nil {
		return err
	}
	r := recs[uid] // zero value carries the empty-note default
	r.Expiry = formatExpiry(expiry)
	if note != nil {
		r.Note = *note
	}
	recs[uid] = r
	return s.save(recs)
}

func (s *FileStore) UpdateExpiry(ctx context.Context, uid string, expiry time.Time) error {
	recs, err := s.load()
	if err != nil {
		return err
	}
	r, ok := recs[uid]
	if !ok {
		return ports.ErrNotFound
	}
	r.Expiry = formatExpiry(expiry)
	recs[uid] = r
	return s.save(recs)
}

func (s *FileStore) UpdateNote(ctx context.Context, uid string, note string) error {
	recs, err := s.load()
	if err != nil {
		return err
	}
	r, ok := recs[uid]
	if !ok {
		return ports.ErrNotFound
	}
	r.Note = note
	recs[uid] = r
	return s.save(recs)
}

func (s *FileStore) Delete(ctx context.Context, uid string) error {
	recs, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := recs[uid]; !ok {
		return ports.ErrNotFound
	}
	delete(recs, uid)
	return s.save(recs)
}
