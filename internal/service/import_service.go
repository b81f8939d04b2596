package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ecolehub/ecole-api/internal/importer"
	"github.com/ecolehub/ecole-api/internal/models"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

// StudentImportSchema declares the columns accepted by a student import
// file. Messages are surfaced verbatim in the per-row error list.
func StudentImportSchema() importer.Schema {
	return importer.Schema{
		Name: "students",
		Fields: []importer.FieldSpec{
			{Name: "idNumber", Type: importer.FieldString, Rule: "required,min=2,max=20",
				Message: "Le matricule doit contenir entre 2 et 20 caractères"},
			{Name: "firstName", Type: importer.FieldString, Rule: "required,min=2,max=50",
				Message: "Le prénom doit contenir entre 2 et 50 caractères"},
			{Name: "lastName", Type: importer.FieldString, Rule: "required,min=2,max=50",
				Message: "Le nom doit contenir entre 2 et 50 caractères"},
			{Name: "gender", Type: importer.FieldString, Rule: "required,oneof=M F",
				Message: "Le genre doit être M ou F"},
			{Name: "dateOfBirth", Type: importer.FieldString, Rule: "omitempty,datetime=2006-01-02", Optional: true,
				Message: "La date de naissance doit être au format AAAA-MM-JJ"},
			{Name: "address", Type: importer.FieldString, Rule: "omitempty,max=200", Optional: true,
				Message: "L'adresse ne doit pas dépasser 200 caractères"},
		},
	}
}

type studentBulkRepository interface {
	BulkCreate(ctx context.Context, students []*models.Student) error
}

// ImportService runs the upload pipeline: parse, validate, persist.
type ImportService struct {
	students  studentBulkRepository
	validator *validator.Validate
	logger    *zap.Logger
	maxRows   int
}

// NewImportService constructs the import service.
func NewImportService(students studentBulkRepository, validate *validator.Validate, logger *zap.Logger, maxRows int) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{students: students, validator: validate, logger: logger, maxRows: maxRows}
}

// ImportStudents parses the uploaded file and, when every row passes
// validation, persists the batch atomically. A result with a banner is
// returned in every non-fatal case so callers can render the outcome.
func (s *ImportService) ImportStudents(ctx context.Context, data []byte, filename, schoolID string) (*importer.Result, error) {
	parser := importer.NewParser(StudentImportSchema(), s.validator, s.logger)
	parser.MaxRows = s.maxRows

	result := parser.Parse(data, filename)
	if result.FileError != nil {
		return result, result.FileError
	}
	if len(result.RowErrors) > 0 {
		// nothing is persisted until the file is fully clean
		return result, nil
	}

	students := make([]*models.Student, 0, len(result.Rows))
	for _, row := range result.Rows {
		student := &models.Student{
			IDNumber:  stringField(row, "idNumber"),
			FirstName: stringField(row, "firstName"),
			LastName:  stringField(row, "lastName"),
			Gender:    stringField(row, "gender"),
			SchoolID:  schoolID,
		}
		if addr := stringField(row, "address"); addr != "" {
			student.Address = &addr
		}
		if raw := stringField(row, "dateOfBirth"); raw != "" {
			if dob, err := time.Parse("2006-01-02", raw); err == nil {
				student.DateOfBirth = &dob
			}
		}
		students = append(students, student)
	}

	if err := s.students.BulkCreate(ctx, students); err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist imported students")
	}
	s.logger.Info("students imported", zap.Int("count", len(students)), zap.String("school_id", schoolID))
	return result, nil
}

func stringField(row map[string]interface{}, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}
