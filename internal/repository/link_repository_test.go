package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecolehub/ecole-api/internal/models"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

func linkRows(isUsed bool, expiredAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "parent_id", "otp", "is_used", "expired_at", "used_at", "created_at"}).
		AddRow("l1", nil, "p1", "123456", isUsed, expiredAt, nil, time.Now())
}

func TestLinkRepositoryIssue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)

	mock.ExpectExec("INSERT INTO parent_links").
		WillReturnResult(sqlmock.NewResult(1, 1))

	link := &models.ParentLink{ParentID: "p1", OTP: "123456", ExpiredAt: time.Now().Add(15 * time.Minute)}
	require.NoError(t, repo.Issue(context.Background(), link))
	assert.NotEmpty(t, link.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepositoryIssueDuplicateOTP(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)

	mock.ExpectExec("INSERT INTO parent_links").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Issue(context.Background(), &models.ParentLink{ParentID: "p1", OTP: "123456"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateOTP))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepositoryRedeemSuccess(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE parent_links SET is_used = true").
		WithArgs("123456", "s1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, student_id, parent_id, otp").
		WithArgs("123456").
		WillReturnRows(linkRows(true, now.Add(10*time.Minute)))
	mock.ExpectExec("UPDATE students SET parent_id").
		WithArgs("s1", "p1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	link, err := repo.Redeem(context.Background(), "123456", "s1", now)
	require.NoError(t, err)
	assert.Equal(t, "p1", link.ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepositoryRedeemAlreadyUsed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE parent_links SET is_used = true").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, student_id, parent_id, otp").
		WithArgs("123456").
		WillReturnRows(linkRows(true, now.Add(10*time.Minute)))
	mock.ExpectRollback()

	_, err := repo.Redeem(context.Background(), "123456", "s1", now)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOTPAlreadyUsed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepositoryRedeemExpired(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE parent_links SET is_used = true").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, student_id, parent_id, otp").
		WithArgs("123456").
		WillReturnRows(linkRows(false, now.Add(-time.Minute)))
	mock.ExpectRollback()

	_, err := repo.Redeem(context.Background(), "123456", "s1", now)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOTPExpired))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepositoryRedeemUnknownCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE parent_links SET is_used = true").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, student_id, parent_id, otp").
		WithArgs("999999").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Redeem(context.Background(), "999999", "s1", now)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOTPNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepositoryRedeemRollsBackWhenBindFails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE parent_links SET is_used = true").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, student_id, parent_id, otp").
		WillReturnRows(linkRows(true, now.Add(10*time.Minute)))
	mock.ExpectExec("UPDATE students SET parent_id").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.Redeem(context.Background(), "123456", "s1", now)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
