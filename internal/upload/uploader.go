// Package upload stores user files in Cloud Storage, or inlines them as data
// URLs when no bucket is configured (demo mode).
package upload

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

type Uploader struct {
	bucket string
	client *storage.Client
}

// New returns a bucket-backed uploader, or a data-URL uploader when bucket is
// empty.
func New(ctx context.Context, bucket string) (*Uploader, error) {
	if bucket == "" {
		return &Uploader{}, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Uploader{bucket: bucket, client: client}, nil
}

func (u *Uploader) Demo() bool { return u.client == nil }

func (u *Uploader) Close() error {
	if u.client == nil {
		return nil
	}
	return u.client.Close()
}

// Store writes data and returns a publicly reachable URL. In demo mode the
// returned URL is a self-contained data URL.
func (u *Uploader) Store(ctx context.Context, folder, filename, contentType string, data []byte) (string, error) {
	if u.client == nil {
		return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}

	object := path.Join(folder, uuid.NewString()+path.Ext(filename))
	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, object), nil
}
