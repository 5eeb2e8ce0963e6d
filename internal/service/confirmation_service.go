package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mohitb777/conference-scheduler/internal/models"
	appErrors "github.com/mohitb777/conference-scheduler/pkg/errors"
)

// ResolveAction is the presenter's reply to a scheduled slot.
type ResolveAction string

const (
	ActionConfirm    ResolveAction = "confirm"
	ActionDeny       ResolveAction = "deny"
	ActionReschedule ResolveAction = "reschedule"
)

type tokenRepository interface {
	FindByPaperID(ctx context.Context, paperID int64) (*models.Assignment, error)
	FindByToken(ctx context.Context, token string) (*models.Assignment, error)
	SetToken(ctx context.Context, paperID int64, token string, expires time.Time) error
	ResolveStatus(ctx context.Context, id string, status models.AssignmentStatus) error
	ListWithoutToken(ctx context.Context) ([]models.Assignment, error)
}

// TokenNotifier delivers the confirmation request to the presenter.
type TokenNotifier interface {
	SendConfirmation(ctx context.Context, paper *models.Paper, assignment *models.Assignment, token string) error
}

// SendReport summarizes a bulk notification run.
type SendReport struct {
	Sent   int     `json:"sent"`
	Failed []int64 `json:"failed,omitempty"`
}

// ConfirmationService owns the single-use token round: issuing tokens,
// mailing them out and resolving the presenter's reply exactly once.
type ConfirmationService struct {
	assignments tokenRepository
	papers      paperReader
	notifier    TokenNotifier
	tokenTTL    time.Duration
	logger      *zap.Logger
}

// NewConfirmationService constructs the confirmation round manager. notifier
// may be nil, in which case tokens are issued but nothing is mailed.
func NewConfirmationService(assignments tokenRepository, papers paperReader, notifier TokenNotifier, tokenTTL time.Duration, logger *zap.Logger) *ConfirmationService {
	if tokenTTL <= 0 {
		tokenTTL = 48 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmationService{
		assignments: assignments,
		papers:      papers,
		notifier:    notifier,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// IssueToken mints a fresh single-use token for the paper's assignment and
// stores it with its expiry. Re-issuing replaces any previous token.
func (s *ConfirmationService) IssueToken(ctx context.Context, paperID int64) (string, time.Time, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate token")
	}
	token := hex.EncodeToString(buf)
	expires := time.Now().Add(s.tokenTTL)

	if err := s.assignments.SetToken(ctx, paperID, token, expires); err != nil {
		if err == sql.ErrNoRows {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no assignment found for paper %d", paperID))
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to store token")
	}
	return token, expires, nil
}

// Resolve consumes a token. Unknown and expired tokens are rejected alike;
// an assignment that already left pending reports its settled state instead
// of flipping again.
func (s *ConfirmationService) Resolve(ctx context.Context, token string, action ResolveAction) (*models.Assignment, error) {
	target, ok := statusFor(action)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown action %q", action))
	}
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "confirmation token is required")
	}

	assignment, err := s.assignments.FindByToken(ctx, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid confirmation token")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to look up token")
	}

	if assignment.ConfirmationExpires != nil && time.Now().After(*assignment.ConfirmationExpires) {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "confirmation token has expired")
	}

	if assignment.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrAlreadyResolved,
			fmt.Sprintf("assignment for paper %d was already %s", assignment.PaperID, assignment.Status))
	}

	if err := s.assignments.ResolveStatus(ctx, assignment.ID, target); err != nil {
		if err == sql.ErrNoRows {
			// lost the race to a concurrent resolve
			return nil, appErrors.Clone(appErrors.ErrAlreadyResolved,
				fmt.Sprintf("assignment for paper %d was already resolved", assignment.PaperID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to resolve assignment")
	}

	assignment.Status = target
	s.logger.Info("assignment resolved",
		zap.Int64("paper_id", assignment.PaperID),
		zap.String("status", target.String()))
	return assignment, nil
}

// SendConfirmation issues a token for one paper and mails the confirmation
// request to its corresponding author.
func (s *ConfirmationService) SendConfirmation(ctx context.Context, paperID int64) error {
	if s.notifier == nil {
		return appErrors.Clone(appErrors.ErrUnavailable, "mail delivery is not configured")
	}

	assignment, err := s.assignments.FindByPaperID(ctx, paperID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no assignment found for paper %d", paperID))
		}
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load assignment")
	}

	paper, err := s.papers.FindByPaperID(ctx, paperID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrPaperNotFound, fmt.Sprintf("paper %d not found", paperID))
		}
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load paper")
	}

	token, _, err := s.IssueToken(ctx, paperID)
	if err != nil {
		return err
	}

	if err := s.notifier.SendConfirmation(ctx, paper, assignment, token); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status,
			fmt.Sprintf("failed to send confirmation for paper %d", paperID))
	}

	s.logger.Info("confirmation sent", zap.Int64("paper_id", paperID), zap.String("email", paper.Email))
	return nil
}

// SendPendingEmails mails a confirmation request to every assignment that
// has not been contacted yet. Individual failures do not stop the run.
func (s *ConfirmationService) SendPendingEmails(ctx context.Context) (*SendReport, error) {
	if s.notifier == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "mail delivery is not configured")
	}

	pending, err := s.assignments.ListWithoutToken(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list pending assignments")
	}

	report := &SendReport{}
	for _, assignment := range pending {
		if err := s.SendConfirmation(ctx, assignment.PaperID); err != nil {
			s.logger.Warn("confirmation send failed",
				zap.Int64("paper_id", assignment.PaperID),
				zap.Error(err))
			report.Failed = append(report.Failed, assignment.PaperID)
			continue
		}
		report.Sent++
	}
	return report, nil
}

func statusFor(action ResolveAction) (models.AssignmentStatus, bool) {
	switch action {
	case ActionConfirm:
		return models.StatusConfirmed, true
	case ActionDeny:
		return models.StatusDenied, true
	case ActionReschedule:
		return models.StatusRescheduleRequested, true
	default:
		return 0, false
	}
}
