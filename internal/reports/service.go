package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/blob"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

type Logger interface {
	Printf(format string, v ...any)
}

// Service exports weekly report summaries to the blob store.
type Service struct {
	generator  *Generator
	blobStore  blob.Store
	presignTTL int
	logger     Logger
	now        func() time.Time
}

// NewService creates a new export service
func NewService(generator *Generator, blobStore blob.Store, presignTTL int, logger Logger) *Service {
	if presignTTL <= 0 {
		presignTTL = 900
	}
	return &Service{
		generator:  generator,
		blobStore:  blobStore,
		presignTTL: presignTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Export renders summary for week, stores it and returns a download URL.
func (s *Service) Export(ctx context.Context, week viewstate.Week, summary apiclient.ReportSummary, format string) (*Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatPDF && format != FormatCSV {
		return nil, ErrInvalidFormat
	}
	if summary.Empty() {
		return nil, ErrEmptyReport
	}

	data, err := s.generator.Generate(week, summary, format)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	id := uuid.New()
	objectKey := fmt.Sprintf("reports/%s_%s_%s.%s", week.StartDate, week.EndDate, id.String(), format)

	size, err := s.blobStore.PutObject(ctx, objectKey, data, contentType(format))
	if err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	downloadURL, err := s.blobStore.PresignGet(ctx, objectKey, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate download URL: %w", err)
	}

	logf(s.logger, "INFO reports: exported week=%s format=%s key=%s size=%d", week.StartDate, format, objectKey, size)

	return &Export{
		ID:          id,
		Format:      format,
		Week:        week,
		ObjectKey:   objectKey,
		SizeBytes:   size,
		DownloadURL: downloadURL,
		CreatedAt:   s.now().UTC(),
	}, nil
}

// Delete removes a previously exported file.
func (s *Service) Delete(ctx context.Context, objectKey string) error {
	if err := s.blobStore.DeleteObject(ctx, objectKey); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
