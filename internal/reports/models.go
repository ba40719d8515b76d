package reports

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

// Export is a generated weekly report file.
type Export struct {
	ID          uuid.UUID      `json:"id"`
	Format      string         `json:"format"`
	Week        viewstate.Week `json:"week"`
	ObjectKey   string         `json:"object_key"`
	SizeBytes   int64          `json:"size_bytes"`
	DownloadURL string         `json:"download_url"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Constants for validation
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrEmptyReport   = errors.New("report has no data")
	ErrOutOfRange    = errors.New("week out of range")
	ErrClosed        = errors.New("report browser closed")
	ErrSuperseded    = errors.New("report fetch superseded")
)

func contentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
