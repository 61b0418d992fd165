// Package docstore stores receipts and asset documents in Google Cloud
// Storage. Records reference uploads by URI; the ledger never stores bytes.
package docstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Uploader writes documents into a single configured bucket.
type Uploader struct {
	bucket string
}

// NewUploader creates an uploader for the given bucket. Credentials come
// from Application Default Credentials.
func NewUploader(bucket string) *Uploader {
	return &Uploader{bucket: bucket}
}

// Upload streams r into the bucket under objectName and returns the gs://
// URI of the stored object.
func (u *Uploader) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("docstore: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("docstore: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("docstore: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", u.bucket, objectName), nil
}

// ObjectName builds a date-partitioned, collision-free object name for an
// uploaded file.
func ObjectName(filename string) string {
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = "document"
	}
	return fmt.Sprintf("receipts/%s/%s-%s",
		time.Now().UTC().Format("2006/01/02"), uuid.NewString(), filename)
}

// FilenameFromURI extracts the filename from a gs:// URI.
// e.g. "gs://bucket/folder/file.pdf" -> "file.pdf".
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
