package domain

import (
	"context"
	"fmt"
	"io"

	"github.com/abakusuz/paybot/internal/ports"
	"go.uber.org/zap"
)

// Receipt is a proof-of-payment screenshot submitted through the bot.
type Receipt struct {
	UID         string
	FullName    string
	FileID      string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ReceiptService struct {
	archive  ports.ReceiptArchive // nil when no bucket is configured
	notifier ports.AdminNotifier
	log      *zap.SugaredLogger
}

func NewReceiptService(archive ports.ReceiptArchive, log *zap.SugaredLogger) *ReceiptService {
	return &ReceiptService{archive: archive, log: log}
}

// SetNotifier wires the admin notifier after the bot is up, the notifier
// being the bot itself.
func (s *ReceiptService) SetNotifier(n ports.AdminNotifier) {
	s.notifier = n
}

// Submit archives the screenshot when a bucket is configured and forwards it
// to the administrator. An archive failure degrades to forward-only.
func (s *ReceiptService) Submit(ctx context.Context, rc Receipt) error {
	var archiveURL string
	if s.archive != nil && rc.Body != nil {
		url, err := s.archive.Put(ctx, rc.UID, rc.Body, rc.Size, rc.ContentType)
		if err != nil {
			s.log.Warnw("receipt archive failed", "uid", rc.UID, "err", err)
		} else {
			archiveURL = url
		}
	}

	if s.notifier == nil {
		return fmt.Errorf("admin notifier is not configured")
	}
	return s.notifier.NotifyReceipt(ctx, rc.UID, rc.FullName, rc.FileID, archiveURL)
}
