package ports

import (
	"context"
	"io"
)

// ReceiptArchive stores submitted payment screenshots and returns a public URL.
type ReceiptArchive interface {
	Put(ctx context.Context, uid string, r io.Reader, size int64, contentType string) (string, error)
}

// AdminNotifier delivers a submitted receipt to the administrator chat.
type AdminNotifier interface {
	NotifyReceipt(ctx context.Context, uid, fullName, fileID, archiveURL string) error
}
