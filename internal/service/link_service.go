package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ecolehub/ecole-api/internal/models"
	"github.com/ecolehub/ecole-api/internal/repository"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

type linkRepository interface {
	Issue(ctx context.Context, link *models.ParentLink) error
	FindByOTP(ctx context.Context, otp string) (*models.ParentLink, error)
	Redeem(ctx context.Context, otp, studentID string, now time.Time) (*models.ParentLink, error)
}

// LinkConfig tunes code issuance.
type LinkConfig struct {
	TTL        time.Duration
	CodeLength int
	MaxRetries int
}

// LinkService implements the parent-linking protocol: a director issues a
// short-lived numeric code for a parent, the parent redeems it once
// against a student.
type LinkService struct {
	repo      linkRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    LinkConfig
}

// NewLinkService constructs the link service.
func NewLinkService(repo linkRepository, validate *validator.Validate, logger *zap.Logger, config LinkConfig) *LinkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 15 * time.Minute
	}
	if config.CodeLength <= 0 {
		config.CodeLength = 6
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	return &LinkService{repo: repo, validator: validate, logger: logger, config: config}
}

// Issue creates a fresh single-use code for the parent. Collisions with an
// already issued code are retried with a new draw.
func (s *LinkService) Issue(ctx context.Context, req models.IssueLinkRequest) (*models.IssueLinkResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid issue payload")
	}

	var lastErr error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
		}
		link := &models.ParentLink{
			ParentID:  req.ParentID,
			OTP:       code,
			ExpiredAt: time.Now().UTC().Add(s.config.TTL),
		}
		err = s.repo.Issue(ctx, link)
		if err == nil {
			s.logger.Info("link code issued", zap.String("parent_id", req.ParentID))
			return &models.IssueLinkResponse{OTP: link.OTP, ExpiredAt: link.ExpiredAt}, nil
		}
		if !errors.Is(err, repository.ErrDuplicateOTP) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue code")
		}
		lastErr = err
	}
	return nil, appErrors.Wrap(lastErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue code")
}

// Redeem consumes a code and binds the student to its parent. The caller
// only ever sees the three documented refusals; anything else is internal.
func (s *LinkService) Redeem(ctx context.Context, req models.RedeemLinkRequest) (*models.ParentLink, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid redeem payload")
	}

	link, err := s.repo.Redeem(ctx, req.OTP, req.StudentID, time.Now().UTC())
	if err != nil {
		switch {
		case appErrors.Is(err, appErrors.ErrOTPNotFound),
			appErrors.Is(err, appErrors.ErrOTPAlreadyUsed),
			appErrors.Is(err, appErrors.ErrOTPExpired):
			return nil, err
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to redeem code")
		}
	}
	s.logger.Info("link code redeemed",
		zap.String("student_id", req.StudentID),
		zap.String("parent_id", link.ParentID))
	return link, nil
}

// generateCode draws a uniformly random zero-padded numeric code.
func (s *LinkService) generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < s.config.CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", s.config.CodeLength, n), nil
}
