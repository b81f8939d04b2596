package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ecolehub/ecole-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s LEFT JOIN classes c ON c.id = s.class_id"
	args := []interface{}{}
	conditions := []string{"s.active = true"}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("s.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Unassigned != nil && *filter.Unassigned {
		conditions = append(conditions, "s.parent_id IS NULL")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d OR LOWER(s.id_number) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"last_name":  "s.last_name",
		"first_name": "s.first_name",
		"id_number":  "s.id_number",
		"created_at": "s.created_at",
	}
	if sortBy == "" {
		sortBy = "last_name"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.last_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.id_number, s.first_name, s.last_name, s.gender, s.date_of_birth, s.address, s.avatar_url,
        s.class_id, s.parent_id, s.school_id, s.active, s.created_at, s.updated_at, c.name AS class_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(s.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := `SELECT s.id, s.id_number, s.first_name, s.last_name, s.gender, s.date_of_birth, s.address, s.avatar_url,
        s.class_id, s.parent_id, s.school_id, s.active, s.created_at, s.updated_at, c.name AS class_name
        FROM students s
        LEFT JOIN classes c ON c.id = s.class_id
        WHERE s.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByIDNumber checks if a student with the given number exists,
// optionally excluding an ID.
func (r *StudentRepository) ExistsByIDNumber(ctx context.Context, idNumber string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE id_number = $1"
	args := []interface{}{idNumber}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check id number: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	student.Active = true
	const query = `INSERT INTO students (id, id_number, first_name, last_name, gender, date_of_birth, address, avatar_url, class_id, parent_id, school_id, active, created_at, updated_at)
        VALUES (:id, :id_number, :first_name, :last_name, :gender, :date_of_birth, :address, :avatar_url, :class_id, :parent_id, :school_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// BulkCreate inserts a batch of students atomically. A single bad row
// rolls back the whole batch.
func (r *StudentRepository) BulkCreate(ctx context.Context, students []*models.Student) error {
	if len(students) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create: %w", err)
	}
	const query = `INSERT INTO students (id, id_number, first_name, last_name, gender, date_of_birth, address, avatar_url, class_id, parent_id, school_id, active, created_at, updated_at)
        VALUES (:id, :id_number, :first_name, :last_name, :gender, :date_of_birth, :address, :avatar_url, :class_id, :parent_id, :school_id, :active, :created_at, :updated_at)`
	now := time.Now().UTC()
	for _, student := range students {
		if student.ID == "" {
			student.ID = uuid.NewString()
		}
		student.CreatedAt = now
		student.UpdatedAt = now
		student.Active = true
		if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk create student %s: %w", student.IDNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, gender = :gender, date_of_birth = :date_of_birth,
        address = :address, avatar_url = :avatar_url, class_id = :class_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateParent binds a student to a parent account.
func (r *StudentRepository) UpdateParent(ctx context.Context, studentID, parentID string) error {
	const query = `UPDATE students SET parent_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, parentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student parent: %w", err)
	}
	return nil
}

// Deactivate marks a student as inactive.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE students SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}
