package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecolehub/ecole-api/internal/models"
	"github.com/ecolehub/ecole-api/internal/repository"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

type mockLinkRepo struct {
	issued      []*models.ParentLink
	issueErrs   []error
	redeemErr   error
	redeemed    *models.ParentLink
	redeemCalls int
}

func (m *mockLinkRepo) Issue(ctx context.Context, link *models.ParentLink) error {
	if len(m.issueErrs) > 0 {
		err := m.issueErrs[0]
		m.issueErrs = m.issueErrs[1:]
		if err != nil {
			return err
		}
	}
	m.issued = append(m.issued, link)
	return nil
}

func (m *mockLinkRepo) FindByOTP(ctx context.Context, otp string) (*models.ParentLink, error) {
	for _, l := range m.issued {
		if l.OTP == otp {
			return l, nil
		}
	}
	return nil, appErrors.ErrOTPNotFound
}

func (m *mockLinkRepo) Redeem(ctx context.Context, otp, studentID string, now time.Time) (*models.ParentLink, error) {
	m.redeemCalls++
	if m.redeemErr != nil {
		return nil, m.redeemErr
	}
	return m.redeemed, nil
}

const parentUUID = "5f1c6f45-9f5e-4c4e-9a3d-0a2b4c6d8e0f"
const studentUUID = "2b9a7e11-3c4d-4f5a-8b6c-7d8e9f0a1b2c"

func TestLinkServiceIssueGeneratesCodeOfConfiguredLength(t *testing.T) {
	repo := &mockLinkRepo{}
	svc := NewLinkService(repo, nil, nil, LinkConfig{TTL: 15 * time.Minute, CodeLength: 6})

	resp, err := svc.Issue(context.Background(), models.IssueLinkRequest{ParentID: parentUUID})
	require.NoError(t, err)
	assert.Len(t, resp.OTP, 6)
	assert.Regexp(t, `^\d{6}$`, resp.OTP)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), resp.ExpiredAt, 5*time.Second)

	require.Len(t, repo.issued, 1)
	assert.False(t, repo.issued[0].IsUsed)
	assert.Nil(t, repo.issued[0].StudentID, "student stays unbound until redemption")
}

func TestLinkServiceIssueRetriesOnCollision(t *testing.T) {
	repo := &mockLinkRepo{issueErrs: []error{repository.ErrDuplicateOTP, nil}}
	svc := NewLinkService(repo, nil, nil, LinkConfig{MaxRetries: 3})

	resp, err := svc.Issue(context.Background(), models.IssueLinkRequest{ParentID: parentUUID})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.OTP)
	assert.Len(t, repo.issued, 1)
}

func TestLinkServiceIssueGivesUpAfterMaxRetries(t *testing.T) {
	repo := &mockLinkRepo{issueErrs: []error{repository.ErrDuplicateOTP, repository.ErrDuplicateOTP}}
	svc := NewLinkService(repo, nil, nil, LinkConfig{MaxRetries: 2})

	_, err := svc.Issue(context.Background(), models.IssueLinkRequest{ParentID: parentUUID})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestLinkServiceIssueValidatesPayload(t *testing.T) {
	svc := NewLinkService(&mockLinkRepo{}, nil, nil, LinkConfig{})

	_, err := svc.Issue(context.Background(), models.IssueLinkRequest{ParentID: "not-a-uuid"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLinkServiceRedeemPassesThroughDocumentedRefusals(t *testing.T) {
	for _, refusal := range []*appErrors.Error{
		appErrors.ErrOTPNotFound,
		appErrors.ErrOTPAlreadyUsed,
		appErrors.ErrOTPExpired,
	} {
		repo := &mockLinkRepo{redeemErr: refusal}
		svc := NewLinkService(repo, nil, nil, LinkConfig{})

		_, err := svc.Redeem(context.Background(), models.RedeemLinkRequest{OTP: "123456", StudentID: studentUUID})
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, refusal), "refusal %s must reach the caller unchanged", refusal.Code)
	}
}

func TestLinkServiceRedeemMasksInternalFailures(t *testing.T) {
	repo := &mockLinkRepo{redeemErr: assert.AnError}
	svc := NewLinkService(repo, nil, nil, LinkConfig{})

	_, err := svc.Redeem(context.Background(), models.RedeemLinkRequest{OTP: "123456", StudentID: studentUUID})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestLinkServiceRedeemSuccess(t *testing.T) {
	sid := studentUUID
	repo := &mockLinkRepo{redeemed: &models.ParentLink{ID: "l1", ParentID: parentUUID, StudentID: &sid, IsUsed: true}}
	svc := NewLinkService(repo, nil, nil, LinkConfig{})

	link, err := svc.Redeem(context.Background(), models.RedeemLinkRequest{OTP: "123456", StudentID: studentUUID})
	require.NoError(t, err)
	assert.True(t, link.IsUsed)
	assert.Equal(t, parentUUID, link.ParentID)
	assert.Equal(t, 1, repo.redeemCalls)
}
