package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ecolehub/ecole-api/internal/caseconv"
	"github.com/ecolehub/ecole-api/internal/models"
	"github.com/ecolehub/ecole-api/internal/tablestate"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
	"github.com/ecolehub/ecole-api/pkg/export"
)

type exportStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
}

// ExportFormat enumerates supported roster export formats.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportService renders student rosters as downloadable files.
type ExportService struct {
	students exportStudentRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
	enabled  bool
}

// NewExportService constructs the export service.
func NewExportService(students exportStudentRepository, logger *zap.Logger, enabled bool) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students: students,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		enabled:  enabled,
	}
}

// Enabled indicates whether exports are active.
func (s *ExportService) Enabled() bool {
	return s != nil && s.enabled
}

// rosterColumns are the exported fields, in display order, keyed in
// camelCase so the key_case option can rewrite them.
var rosterColumns = []string{"idNumber", "lastName", "firstName", "gender", "className"}

// orderRoster sorts the roster the way the list views do: French collation
// on last name, which the database ORDER BY does not provide. Equal names
// keep their fetch order.
func orderRoster(all []models.StudentDetail) []*models.StudentDetail {
	roster := make([]*models.StudentDetail, len(all))
	for i := range all {
		roster[i] = &all[i]
	}
	table := tablestate.New(roster, tablestate.Config[models.StudentDetail]{
		SortKeys: map[string]tablestate.SortKey[models.StudentDetail]{
			"lastName": {String: func(s *models.StudentDetail) string { return s.LastName }},
		},
		DefaultSort: "lastName",
	})
	return table.Filtered()
}

// StudentRoster exports every student matching the filter. keyCase
// rewrites the column headers for downstream tooling; empty keeps
// camelCase.
func (s *ExportService) StudentRoster(ctx context.Context, filter models.StudentFilter, format ExportFormat, keyCase caseconv.Case) ([]byte, string, error) {
	if !s.Enabled() {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	filter.Page = 1
	filter.PageSize = 100
	var all []models.StudentDetail
	for {
		page, total, err := s.students.List(ctx, filter)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		all = append(all, page...)
		if len(all) >= total || len(page) == 0 {
			break
		}
		filter.Page++
	}

	headers := make([]string, len(rosterColumns))
	for i, col := range rosterColumns {
		if keyCase != "" {
			headers[i] = caseconv.ConvertKey(col, keyCase, caseconv.Options{})
		} else {
			headers[i] = col
		}
	}

	rows := make([]map[string]string, 0, len(all))
	for _, student := range orderRoster(all) {
		values := map[string]string{
			"idNumber":  student.IDNumber,
			"lastName":  student.LastName,
			"firstName": student.FirstName,
			"gender":    student.Gender,
			"className": "",
		}
		if student.ClassName != nil {
			values["className"] = *student.ClassName
		}
		row := make(map[string]string, len(headers))
		for i, col := range rosterColumns {
			row[headers[i]] = values[col]
		}
		rows = append(rows, row)
	}

	dataset := export.Dataset{Headers: headers, Rows: rows}
	switch format {
	case FormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case FormatPDF:
		payload, err := s.pdf.Render(dataset, "Liste des élèves")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", strings.ToLower(string(format))))
	}
}
