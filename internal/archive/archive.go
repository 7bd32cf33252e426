// Package archive writes the raw value block of each import to GCS so a
// batch can be audited or replayed after the source sheet changes.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
)

// snapshot is the archived payload for one import batch.
type snapshot struct {
	BatchID   string     `json:"batch_id"`
	FileID    string     `json:"file_id"`
	SheetName string     `json:"sheet_name,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`
	Rows      [][]string `json:"rows"`
}

// Writer archives raw import batches into a GCS bucket. It assumes
// Application Default Credentials are configured.
type Writer struct {
	bucket string
}

// NewWriter creates an archive writer for the given bucket.
func NewWriter(bucket string) *Writer {
	return &Writer{bucket: bucket}
}

// WriteBatch uploads the raw rows as a JSON object and returns its GCS URI.
// Object names are date-partitioned: imports/YYYY/MM/DD/<batchID>.json.
func (w *Writer) WriteBatch(ctx context.Context, batchID, fileID, sheetName string, rows [][]string) (string, error) {
	payload, err := json.Marshal(snapshot{
		BatchID:   batchID,
		FileID:    fileID,
		SheetName: sheetName,
		FetchedAt: time.Now(),
		Rows:      rows,
	})
	if err != nil {
		return "", fmt.Errorf("archive: marshal snapshot: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("archive: create storage client: %w", err)
	}
	defer client.Close()

	objectName := fmt.Sprintf("imports/%s/%s.json", time.Now().Format("2006/01/02"), batchID)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	wc := client.Bucket(w.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(payload); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("archive: write snapshot: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("archive: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", w.bucket, objectName), nil
}
