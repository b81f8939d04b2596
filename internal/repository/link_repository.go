package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ecolehub/ecole-api/internal/models"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

// LinkRepository manages parent-linking codes. Codes are single-use: the
// used flag flips exactly once, enforced by a conditional update rather
// than a read-then-write.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository constructs a LinkRepository.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Issue inserts a fresh code record. The otp column carries a unique
// constraint; collisions surface as ErrDuplicateOTP so the caller can
// regenerate and retry.
func (r *LinkRepository) Issue(ctx context.Context, link *models.ParentLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO parent_links (id, student_id, parent_id, otp, is_used, expired_at, created_at)
        VALUES (:id, :student_id, :parent_id, :otp, :is_used, :expired_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOTP
		}
		return fmt.Errorf("issue link: %w", err)
	}
	return nil
}

// ErrDuplicateOTP reports a unique-constraint collision on the otp column.
var ErrDuplicateOTP = errors.New("otp already issued")

// FindByOTP fetches a code record regardless of its state.
func (r *LinkRepository) FindByOTP(ctx context.Context, otp string) (*models.ParentLink, error) {
	const query = `SELECT id, student_id, parent_id, otp, is_used, expired_at, used_at, created_at
        FROM parent_links WHERE otp = $1`
	var link models.ParentLink
	if err := r.db.GetContext(ctx, &link, query, otp); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrOTPNotFound
		}
		return nil, fmt.Errorf("find link: %w", err)
	}
	return &link, nil
}

// Redeem consumes a code and binds the student to the issuing parent in
// one transaction. The conditional update is the single-use guard: zero
// affected rows means the code was missing, already used or expired, and
// a re-read distinguishes the three.
func (r *LinkRepository) Redeem(ctx context.Context, otp, studentID string, now time.Time) (*models.ParentLink, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin redeem: %w", err)
	}

	const consume = `UPDATE parent_links SET is_used = true, student_id = $2, used_at = $3
        WHERE otp = $1 AND is_used = false AND expired_at > $3`
	res, err := tx.ExecContext(ctx, consume, otp, studentID, now)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	if affected == 0 {
		reason := r.classify(ctx, tx, otp, now)
		_ = tx.Rollback()
		return nil, reason
	}

	const fetch = `SELECT id, student_id, parent_id, otp, is_used, expired_at, used_at, created_at
        FROM parent_links WHERE otp = $1`
	var link models.ParentLink
	if err := tx.GetContext(ctx, &link, fetch, otp); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("reload link: %w", err)
	}

	const bind = `UPDATE students SET parent_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, bind, studentID, link.ParentID, now); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("bind student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit redeem: %w", err)
	}
	return &link, nil
}

// classify re-reads a non-consumable code to report why it was refused.
func (r *LinkRepository) classify(ctx context.Context, tx *sqlx.Tx, otp string, now time.Time) error {
	const query = `SELECT id, student_id, parent_id, otp, is_used, expired_at, used_at, created_at
        FROM parent_links WHERE otp = $1`
	var link models.ParentLink
	if err := tx.GetContext(ctx, &link, query, otp); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.ErrOTPNotFound
		}
		return fmt.Errorf("classify otp: %w", err)
	}
	if link.IsUsed {
		return appErrors.ErrOTPAlreadyUsed
	}
	if !link.ExpiredAt.After(now) {
		return appErrors.ErrOTPExpired
	}
	return appErrors.ErrOTPNotFound
}
