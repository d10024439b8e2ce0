package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/export"
)

// ExportFormat enumerates supported download formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var exportHeaders = []string{"Created", "Title", "Category", "Status", "Place", "Reported by", "Votes", "Comments"}

var exportWidths = []float64{1.3, 3, 1.6, 1.1, 2.2, 1.5, 0.6, 0.8}

type reportSource interface {
	Filtered(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders filtered projections as CSV or PDF tables.
type ExportService struct {
	reports reportSource
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the
// package defaults.
func NewExportService(reports reportSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		reports: reports,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Export renders the projection selected by filter.
func (s *ExportService) Export(ctx context.Context, filter models.ReportFilter, format ExportFormat) (*ExportFile, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	reports, err := s.reports.Filtered(ctx, filter)
	if err != nil {
		return nil, err
	}

	dataset := buildReportDataset(reports)
	generated := s.now()
	file := &ExportFile{Filename: fmt.Sprintf("reports_%s.%s", generated.Format("20060102_150405"), format)}

	switch format {
	case ExportFormatCSV:
		file.ContentType = "text/csv; charset=utf-8"
		file.Body, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		file.Body, err = s.pdf.Render(dataset, "Voz del Caserío - Community reports", describeFilter(filter, len(reports), generated))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("reports exported", zap.String("format", string(format)), zap.Int("rows", len(reports)))
	return file, nil
}

func buildReportDataset(reports []models.Report) export.Dataset {
	rows := make([]map[string]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, map[string]string{
			"Created":     r.CreatedAt.UTC().Format("2006-01-02 15:04"),
			"Title":       r.Title,
			"Category":    r.Category.Label(),
			"Status":      r.Status.Label(),
			"Place":       r.Place,
			"Reported by": r.CreatedBy.Name,
			"Votes":       strconv.Itoa(r.Votes),
			"Comments":    strconv.Itoa(len(r.Comments)),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows, Widths: exportWidths}
}

func describeFilter(filter models.ReportFilter, rows int, generated time.Time) string {
	parts := []string{fmt.Sprintf("%d reports", rows)}
	if !isAll(filter.Status) {
		parts = append(parts, "status: "+models.ReportStatus(filter.Status).Label())
	}
	if !isAll(filter.Category) {
		parts = append(parts, "category: "+models.ReportCategory(filter.Category).Label())
	}
	if filter.Query != "" {
		parts = append(parts, fmt.Sprintf("search: %q", filter.Query))
	}
	parts = append(parts, "generated "+generated.Format(time.RFC3339))
	return strings.Join(parts, " | ")
}
