package reports

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/pkg/crypto"
)

const archiveContentType = "application/octet-stream"

// ObjectStore persists archive blobs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// ArchiveRecorder receives upload outcomes.
type ArchiveRecorder interface {
	ArchiveUploaded(err error)
}

type nopArchiveRecorder struct{}

func (nopArchiveRecorder) ArchiveUploaded(error) {}

// Archiver renders company reports, encrypts them with age and uploads the
// ciphertext.
type Archiver struct {
	reports   *Service
	store     ObjectStore
	encryptor *crypto.Encryptor
	renderer  Renderer
	recorder  ArchiveRecorder
	logger    *slog.Logger
}

func NewArchiver(reports *Service, store ObjectStore, encryptor *crypto.Encryptor, recorder ArchiveRecorder, logger *slog.Logger) *Archiver {
	if recorder == nil {
		recorder = nopArchiveRecorder{}
	}
	return &Archiver{
		reports:   reports,
		store:     store,
		encryptor: encryptor,
		renderer:  CSVRenderer{},
		recorder:  recorder,
		logger:    logger,
	}
}

// ArchiveKey is the object key for a company archive generated at the
// report's timestamp.
func ArchiveKey(companyID uuid.UUID, r *Report, ext string) string {
	return fmt.Sprintf("reports/%s/%s.%s.age", companyID, r.GeneratedAt.UTC().Format(timestampLayout), ext)
}

// Archive builds the company report for f and uploads it, returning the key.
func (a *Archiver) Archive(ctx context.Context, companyID uuid.UUID, f attendance.Filter) (string, error) {
	report, err := a.reports.CompanyByID(ctx, companyID, f)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := a.encryptor.EncryptTo(&buf)
	if err != nil {
		return "", err
	}
	if err := a.renderer.Render(w, report); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("sealing archive: %w", err)
	}

	key := ArchiveKey(companyID, report, a.renderer.Extension())
	err = a.store.Put(ctx, key, buf.Bytes(), archiveContentType)
	a.recorder.ArchiveUploaded(err)
	if err != nil {
		return "", err
	}

	a.logger.Info("report archived",
		"company_id", companyID,
		"key", key,
		"records", len(report.Rows),
		"date_range", DateRange(report.Filter),
	)
	return key, nil
}
