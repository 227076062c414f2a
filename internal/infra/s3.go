package infra

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/abakusuz/paybot/internal/ports"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type receiptArchive struct {
	client *minio.Client
	bucket string
	host   string
}

// NewReceiptArchive connects to the S3-compatible bucket that keeps payment
// screenshots. All settings come from the environment.
func NewReceiptArchive() (ports.ReceiptArchive, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	bucket := os.Getenv("S3_BUCKET")
	region := os.Getenv("S3_REGION")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: true,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", bucket)
	}

	return &receiptArchive{
		client: client,
		bucket: bucket,
		host:   fmt.Sprintf("https://%s", endpoint),
	}, nil
}

func (a *receiptArchive) Put(ctx context.Context, uid string, r io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("receipts/%s/%s.jpg", uid, uuid.New().String())

	_, err := a.client.PutObject(ctx, a.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", a.host, a.bucket, key), nil
}
