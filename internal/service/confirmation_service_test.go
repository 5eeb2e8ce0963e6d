package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohitb777/conference-scheduler/internal/models"
	appErrors "github.com/mohitb777/conference-scheduler/pkg/errors"
)

type tokenStoreStub struct {
	byPaper  map[int64]*models.Assignment
	byToken  map[string]*models.Assignment
	resolved map[string]models.AssignmentStatus
	noToken  []models.Assignment
}

func newTokenStoreStub() *tokenStoreStub {
	return &tokenStoreStub{
		byPaper:  make(map[int64]*models.Assignment),
		byToken:  make(map[string]*models.Assignment),
		resolved: make(map[string]models.AssignmentStatus),
	}
}

func (s *tokenStoreStub) FindByPaperID(ctx context.Context, paperID int64) (*models.Assignment, error) {
	if a, ok := s.byPaper[paperID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *tokenStoreStub) FindByToken(ctx context.Context, token string) (*models.Assignment, error) {
	if a, ok := s.byToken[token]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *tokenStoreStub) SetToken(ctx context.Context, paperID int64, token string, expires time.Time) error {
	a, ok := s.byPaper[paperID]
	if !ok {
		return sql.ErrNoRows
	}
	a.ConfirmationToken = &token
	a.ConfirmationExpires = &expires
	s.byToken[token] = a
	return nil
}

func (s *tokenStoreStub) ResolveStatus(ctx context.Context, id string, status models.AssignmentStatus) error {
	for _, a := range s.byPaper {
		if a.ID == id {
			if a.Status != models.StatusPending {
				return sql.ErrNoRows
			}
			// the real store updates status only; the token stays on the row
			a.Status = status
			s.resolved[id] = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *tokenStoreStub) ListWithoutToken(ctx context.Context) ([]models.Assignment, error) {
	return s.noToken, nil
}

type notifierStub struct {
	sent    []int64
	sendErr error
}

func (n *notifierStub) SendConfirmation(ctx context.Context, paper *models.Paper, assignment *models.Assignment, token string) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, paper.PaperID)
	return nil
}

func pendingAssignment(paperID int64) *models.Assignment {
	return &models.Assignment{
		ID:       "assignment-1",
		PaperID:  paperID,
		Session:  "Session 1",
		Date:     testDayOne,
		TimeSlot: "2:40 PM - 4:30 PM",
		Status:   models.StatusPending,
	}
}

func TestConfirmationIssueToken(t *testing.T) {
	store := newTokenStoreStub()
	store.byPaper[101] = pendingAssignment(101)
	svc := NewConfirmationService(store, &paperStoreStub{}, nil, 48*time.Hour, zap.NewNop())

	token, expires, err := svc.IssueToken(context.Background(), 101)
	require.NoError(t, err)
	assert.Len(t, token, 40)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), expires, time.Minute)

	_, _, err = svc.IssueToken(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestConfirmationResolveConfirm(t *testing.T) {
	store := newTokenStoreStub()
	store.byPaper[101] = pendingAssignment(101)
	svc := NewConfirmationService(store, &paperStoreStub{}, nil, 48*time.Hour, zap.NewNop())

	token, _, err := svc.IssueToken(context.Background(), 101)
	require.NoError(t, err)

	resolved, err := svc.Resolve(context.Background(), token, ActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, resolved.Status)
	assert.Equal(t, models.StatusConfirmed, store.byPaper[101].Status)
}

func TestConfirmationTokenSingleUse(t *testing.T) {
	store := newTokenStoreStub()
	store.byPaper[101] = pendingAssignment(101)
	svc := NewConfirmationService(store, &paperStoreStub{}, nil, 48*time.Hour, zap.NewNop())

	token, _, err := svc.IssueToken(context.Background(), 101)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), token, ActionConfirm)
	require.NoError(t, err)

	// the second use must report the settled state without changing it
	_, err = svc.Resolve(context.Background(), token, ActionDeny)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyResolved))
	assert.Contains(t, err.Error(), "Confirmed")
	assert.Equal(t, models.StatusConfirmed, store.byPaper[101].Status)
}

func TestConfirmationResolveUnknownToken(t *testing.T) {
	store := newTokenStoreStub()
	svc := NewConfirmationService(store, &paperStoreStub{}, nil, 48*time.Hour, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "deadbeef", ActionConfirm)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidToken))
}

func TestConfirmationResolveExpiredToken(t *testing.T) {
	store := newTokenStoreStub()
	assignment := pendingAssignment(101)
	token := "expired-token"
	expired := time.Now().Add(-time.Hour)
	assignment.ConfirmationToken = &token
	assignment.ConfirmationExpires = &expired
	store.byPaper[101] = assignment
	store.byToken[token] = assignment
	svc := NewConfirmationService(store, &paperStoreStub{}, nil, 48*time.Hour, zap.NewNop())

	// expiry applies to every action, confirm included
	for _, action := range []ResolveAction{ActionConfirm, ActionDeny, ActionReschedule} {
		_, err := svc.Resolve(context.Background(), token, action)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidToken))
	}
	assert.Equal(t, models.StatusPending, store.byPaper[101].Status)
}

func TestConfirmationResolveActions(t *testing.T) {
	cases := []struct {
		action ResolveAction
		want   models.AssignmentStatus
	}{
		{ActionConfirm, models.StatusConfirmed},
		{ActionDeny, models.StatusDenied},
		{ActionReschedule, models.StatusRescheduleRequested},
	}
	for _, tc := range cases {
		store := newTokenStoreStub()
		store.byPaper[101] = pendingAssignment(101)
		svc := NewConfirmationService(store, &paperStoreStub{}, nil, 48*time.Hour, zap.NewNop())

		token, _, err := svc.IssueToken(context.Background(), 101)
		require.NoError(t, err)

		resolved, err := svc.Resolve(context.Background(), token, tc.action)
		require.NoError(t, err, string(tc.action))
		assert.Equal(t, tc.want, resolved.Status)
	}
}

func TestConfirmationResolveUnknownAction(t *testing.T) {
	svc := NewConfirmationService(newTokenStoreStub(), &paperStoreStub{}, nil, 48*time.Hour, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "token", ResolveAction("approve"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestConfirmationSendConfirmation(t *testing.T) {
	store := newTokenStoreStub()
	store.byPaper[101] = pendingAssignment(101)
	papers := &paperStoreStub{papers: map[int64]*models.Paper{101: aiPaper(101)}}
	notifier := &notifierStub{}
	svc := NewConfirmationService(store, papers, notifier, 48*time.Hour, zap.NewNop())

	require.NoError(t, svc.SendConfirmation(context.Background(), 101))
	assert.Equal(t, []int64{101}, notifier.sent)
	assert.NotNil(t, store.byPaper[101].ConfirmationToken)
}

func TestConfirmationSendPendingEmails(t *testing.T) {
	store := newTokenStoreStub()
	store.byPaper[101] = pendingAssignment(101)
	store.byPaper[102] = pendingAssignment(102)
	store.byPaper[102].ID = "assignment-2"
	store.noToken = []models.Assignment{*store.byPaper[101], *store.byPaper[102]}
	papers := &paperStoreStub{papers: map[int64]*models.Paper{
		101: aiPaper(101),
		// 102 has no paper record, so its send fails
	}}
	notifier := &notifierStub{}
	svc := NewConfirmationService(store, papers, notifier, 48*time.Hour, zap.NewNop())

	report, err := svc.SendPendingEmails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, []int64{102}, report.Failed)
}

func TestConfirmationSendWithoutNotifier(t *testing.T) {
	svc := NewConfirmationService(newTokenStoreStub(), &paperStoreStub{}, nil, 48*time.Hour, zap.NewNop())

	err := svc.SendConfirmation(context.Background(), 101)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnavailable))
}
