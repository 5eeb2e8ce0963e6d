package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mohitb777/conference-scheduler/internal/catalog"
	"github.com/mohitb777/conference-scheduler/internal/models"
	appErrors "github.com/mohitb777/conference-scheduler/pkg/errors"
)

type assignmentRepository interface {
	ListAll(ctx context.Context) ([]models.Assignment, error)
	FindByPaperID(ctx context.Context, paperID int64) (*models.Assignment, error)
	FindBySlot(ctx context.Context, date, session, timeSlot string, excludePaperID int64) (*models.Assignment, error)
	CountBySession(ctx context.Context, date, session string, excludePaperID int64) (int, error)
	InsertBatch(ctx context.Context, assignments []models.Assignment) error
	UpdateSlot(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, paperID int64) error
}

type paperReader interface {
	FindByPaperID(ctx context.Context, paperID int64) (*models.Paper, error)
}

// ScheduleProposal is one requested (paper, session, date, time slot) tuple.
type ScheduleProposal struct {
	PaperID  int64  `json:"paper_id" validate:"required,gt=0"`
	Session  string `json:"session" validate:"required"`
	Date     string `json:"date" validate:"required"`
	TimeSlot string `json:"time_slot" validate:"required"`
	Track    string `json:"track" validate:"required"`
	Mode     string `json:"mode" validate:"required"`
}

// RescheduleRequest moves an existing assignment to a new slot.
type RescheduleRequest struct {
	Session  string `json:"session" validate:"required"`
	Date     string `json:"date" validate:"required"`
	TimeSlot string `json:"time_slot" validate:"required"`
}

// Availability reports whether a slot is free and who holds it otherwise.
type Availability struct {
	IsAvailable bool                 `json:"is_available"`
	Conflict    *models.SlotConflict `json:"conflict,omitempty"`
}

// SessionOccupancy reports the fill level of a (date, session) pair.
type SessionOccupancy struct {
	Date        string `json:"date"`
	Session     string `json:"session"`
	Count       int    `json:"count"`
	Capacity    int    `json:"capacity"`
	IsAvailable bool   `json:"is_available"`
}

// SlotOption is a (session, time slot) pair offered for a date.
type SlotOption struct {
	Session     string `json:"session"`
	TimeSlot    string `json:"time_slot"`
	IsAvailable bool   `json:"is_available"`
}

// SchedulerService is the single authority over assignment creation,
// rescheduling and deletion. Every entry point funnels through the same
// ordered validation: batch uniqueness, existing-record exclusivity, paper
// existence, session validity, track, time slot, date, slot exclusivity and
// session capacity.
type SchedulerService struct {
	assignments assignmentRepository
	papers      paperReader
	catalog     *catalog.Catalog
	capacity    int
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSchedulerService constructs the scheduler core.
func NewSchedulerService(assignments assignmentRepository, papers paperReader, cat *catalog.Catalog, capacity int, validate *validator.Validate, logger *zap.Logger) *SchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = 15
	}
	return &SchedulerService{
		assignments: assignments,
		papers:      papers,
		catalog:     cat,
		capacity:    capacity,
		validator:   validate,
		logger:      logger,
	}
}

// Capacity returns the configured per-session ceiling.
func (s *SchedulerService) Capacity() int {
	return s.capacity
}

// Validate dry-runs the full rule set over a batch without touching the
// store. Used by the pre-flight availability check endpoints.
func (s *SchedulerService) Validate(ctx context.Context, proposals []ScheduleProposal) error {
	_, err := s.validateBatch(ctx, proposals, 0)
	return err
}

// Create validates the whole batch and, only if every proposal passes,
// persists all assignments with status pending. Nothing is written when any
// proposal fails.
func (s *SchedulerService) Create(ctx context.Context, proposals []ScheduleProposal) ([]models.Assignment, error) {
	assignments, err := s.validateBatch(ctx, proposals, 0)
	if err != nil {
		return nil, err
	}

	if err := s.assignments.InsertBatch(ctx, assignments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to persist assignments")
	}

	s.logger.Info("assignments created", zap.Int("count", len(assignments)))
	return assignments, nil
}

// Reschedule moves an assignment to a new slot. The target is validated with
// the same session/track/time-slot/date/exclusivity/capacity rules as create,
// excluding the paper's own current occupancy, and the confirmation round
// restarts: status back to pending, token cleared.
func (s *SchedulerService) Reschedule(ctx context.Context, paperID int64, req RescheduleRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}

	existing, err := s.assignments.FindByPaperID(ctx, paperID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no assignment found for paper %d", paperID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load assignment")
	}

	proposal := ScheduleProposal{
		PaperID:  paperID,
		Session:  strings.TrimSpace(req.Session),
		Date:     strings.TrimSpace(req.Date),
		TimeSlot: strings.TrimSpace(req.TimeSlot),
		Track:    existing.Track,
		Mode:     existing.Mode,
	}

	entry, err := s.validateProposal(ctx, proposal, paperID)
	if err != nil {
		return nil, err
	}
	if err := s.checkCapacity(ctx, proposal.Date, proposal.Session, 0, paperID); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Session = entry.Session
	updated.Date = entry.Date
	updated.TimeSlot = entry.TimeSlot
	updated.Venue = entry.Venue
	updated.Status = models.StatusPending
	updated.ConfirmationToken = nil
	updated.ConfirmationExpires = nil

	if err := s.assignments.UpdateSlot(ctx, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no assignment found for paper %d", paperID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to update assignment")
	}

	s.logger.Info("assignment rescheduled",
		zap.Int64("paper_id", paperID),
		zap.String("session", updated.Session),
		zap.String("date", updated.Date))
	return &updated, nil
}

// Delete removes the assignment for a paper. The paper record is untouched.
func (s *SchedulerService) Delete(ctx context.Context, paperID int64) error {
	if err := s.assignments.Delete(ctx, paperID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no assignment found for paper %d", paperID))
		}
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to delete assignment")
	}
	s.logger.Info("assignment deleted", zap.Int64("paper_id", paperID))
	return nil
}

// Get returns the assignment for a paper.
func (s *SchedulerService) Get(ctx context.Context, paperID int64) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByPaperID(ctx, paperID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no assignment found for paper %d", paperID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load assignment")
	}
	return assignment, nil
}

// IsScheduled reports whether the paper already holds an assignment.
func (s *SchedulerService) IsScheduled(ctx context.Context, paperID int64) (bool, *models.Assignment, error) {
	assignment, err := s.assignments.FindByPaperID(ctx, paperID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil, nil
		}
		return false, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to check assignment")
	}
	return true, assignment, nil
}

// CheckAvailability reports whether a slot is free without mutating state.
func (s *SchedulerService) CheckAvailability(ctx context.Context, date, session, timeSlot string) (*Availability, error) {
	occupant, err := s.assignments.FindBySlot(ctx, date, session, timeSlot, 0)
	if err != nil {
		if err == sql.ErrNoRows {
			return &Availability{IsAvailable: true}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to check slot")
	}
	return &Availability{
		IsAvailable: false,
		Conflict: &models.SlotConflict{
			PaperID:  occupant.PaperID,
			Session:  occupant.Session,
			Date:     occupant.Date,
			TimeSlot: occupant.TimeSlot,
		},
	}, nil
}

// Occupancy returns the fill level of a (date, session) pair against the
// configured ceiling.
func (s *SchedulerService) Occupancy(ctx context.Context, date, session string) (*SessionOccupancy, error) {
	count, err := s.assignments.CountBySession(ctx, date, session, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to count session occupancy")
	}
	return &SessionOccupancy{
		Date:        date,
		Session:     session,
		Count:       count,
		Capacity:    s.capacity,
		IsAvailable: count < s.capacity,
	}, nil
}

// AvailableSlots lists every (session, time slot) pair for a date with its
// availability.
func (s *SchedulerService) AvailableSlots(ctx context.Context, date string) ([]SlotOption, error) {
	sessions := s.catalog.SessionsForDate(date)
	if len(sessions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrDateMismatch, fmt.Sprintf("%s is not a conference day", date))
	}

	options := make([]SlotOption, 0, len(sessions))
	for _, session := range sessions {
		slot, _ := s.catalog.TimeSlotOf(session)
		_, err := s.assignments.FindBySlot(ctx, date, session, slot, 0)
		switch {
		case err == sql.ErrNoRows:
			options = append(options, SlotOption{Session: session, TimeSlot: slot, IsAvailable: true})
		case err != nil:
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to check slot")
		default:
			options = append(options, SlotOption{Session: session, TimeSlot: slot, IsAvailable: false})
		}
	}
	return options, nil
}

// ListAll returns every assignment.
func (s *SchedulerService) ListAll(ctx context.Context) ([]models.Assignment, error) {
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list assignments")
	}
	return assignments, nil
}

// validateBatch applies the ordered rule set to every proposal, fail-fast on
// the first violation, and returns the assignments ready for insertion.
// Validation completes for the whole batch before anything is written.
func (s *SchedulerService) validateBatch(ctx context.Context, proposals []ScheduleProposal, excludePaperID int64) ([]models.Assignment, error) {
	if len(proposals) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no proposals supplied")
	}

	seenPapers := make(map[int64]struct{}, len(proposals))
	seenSlots := make(map[string]int64, len(proposals))
	pendingCounts := make(map[string]int, len(proposals))

	assignments := make([]models.Assignment, 0, len(proposals))
	for _, proposal := range proposals {
		proposal.Session = strings.TrimSpace(proposal.Session)
		proposal.Date = strings.TrimSpace(proposal.Date)
		proposal.TimeSlot = strings.TrimSpace(proposal.TimeSlot)

		if err := s.requireFields(proposal); err != nil {
			return nil, err
		}

		if _, dup := seenPapers[proposal.PaperID]; dup {
			return nil, appErrors.Clone(appErrors.ErrDuplicatePaper,
				fmt.Sprintf("paper %d appears more than once in the batch", proposal.PaperID))
		}
		seenPapers[proposal.PaperID] = struct{}{}

		entry, err := s.validateProposal(ctx, proposal, excludePaperID)
		if err != nil {
			return nil, err
		}

		slotKey := proposal.Date + "|" + proposal.Session + "|" + proposal.TimeSlot
		if holder, taken := seenSlots[slotKey]; taken {
			return nil, s.slotTaken(holder, proposal)
		}

		sessionKey := proposal.Date + "|" + proposal.Session
		if err := s.checkCapacity(ctx, proposal.Date, proposal.Session, pendingCounts[sessionKey], excludePaperID); err != nil {
			return nil, err
		}
		pendingCounts[sessionKey]++
		seenSlots[slotKey] = proposal.PaperID

		assignments = append(assignments, *entry)
	}
	return assignments, nil
}

// validateProposal runs the per-proposal rules: required fields, exclusivity
// against committed assignments, paper existence, session validity and the
// track/time-slot/date/slot checks against the catalog.
func (s *SchedulerService) validateProposal(ctx context.Context, proposal ScheduleProposal, excludePaperID int64) (*models.Assignment, error) {
	if err := s.requireFields(proposal); err != nil {
		return nil, err
	}

	if proposal.PaperID != excludePaperID {
		if _, err := s.assignments.FindByPaperID(ctx, proposal.PaperID); err == nil {
			return nil, appErrors.Clone(appErrors.ErrAlreadyScheduled,
				fmt.Sprintf("paper %d is already scheduled", proposal.PaperID))
		} else if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to check existing assignment")
		}
	}

	paper, err := s.papers.FindByPaperID(ctx, proposal.PaperID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrPaperNotFound,
				fmt.Sprintf("paper %d not found", proposal.PaperID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load paper")
	}

	entry, ok := s.catalog.Lookup(proposal.Session)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidSession,
			fmt.Sprintf("invalid session %q for paper %d", proposal.Session, proposal.PaperID))
	}

	if catalog.NormalizeTrack(proposal.Track) != catalog.NormalizeTrack(entry.Track) {
		return nil, appErrors.Clone(appErrors.ErrTrackMismatch,
			fmt.Sprintf("paper %d: session %s expects track %q, got %q", proposal.PaperID, entry.ID, entry.Track, proposal.Track))
	}
	if catalog.NormalizeTrack(paper.Track) != catalog.NormalizeTrack(entry.Track) {
		return nil, appErrors.Clone(appErrors.ErrTrackMismatch,
			fmt.Sprintf("paper %d belongs to track %q, not session track %q", proposal.PaperID, paper.Track, entry.Track))
	}

	if proposal.TimeSlot != entry.TimeSlot {
		return nil, appErrors.Clone(appErrors.ErrTimeSlotMismatch,
			fmt.Sprintf("paper %d: session %s runs %s, got %s", proposal.PaperID, entry.ID, entry.TimeSlot, proposal.TimeSlot))
	}

	if proposal.Date != entry.Date {
		return nil, appErrors.Clone(appErrors.ErrDateMismatch,
			fmt.Sprintf("paper %d: session %s runs on %s, got %s", proposal.PaperID, entry.ID, entry.Date, proposal.Date))
	}

	occupant, err := s.assignments.FindBySlot(ctx, proposal.Date, proposal.Session, proposal.TimeSlot, excludePaperID)
	if err == nil {
		return nil, s.slotTaken(occupant.PaperID, proposal)
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to check slot exclusivity")
	}

	mode := strings.ToLower(strings.TrimSpace(proposal.Mode))
	if mode != models.ModeOnline && mode != models.ModeOffline {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("paper %d: mode must be online or offline, got %q", proposal.PaperID, proposal.Mode))
	}

	return &models.Assignment{
		PaperID:  proposal.PaperID,
		Session:  entry.ID,
		Date:     entry.Date,
		TimeSlot: entry.TimeSlot,
		Venue:    entry.Venue,
		Track:    paper.Track,
		Mode:     mode,
		Status:   models.StatusPending,
	}, nil
}

// checkCapacity enforces the per-(date, session) ceiling. pendingAdditional
// counts proposals from the same batch validated ahead of this one, so a
// batch cannot sneak past the ceiling collectively.
func (s *SchedulerService) checkCapacity(ctx context.Context, date, session string, pendingAdditional int, excludePaperID int64) error {
	count, err := s.assignments.CountBySession(ctx, date, session, excludePaperID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to count session occupancy")
	}
	if count+pendingAdditional >= s.capacity {
		return appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("%s on %s is full (maximum %d papers)", session, date, s.capacity))
	}
	return nil
}

func (s *SchedulerService) requireFields(proposal ScheduleProposal) error {
	var missing []string
	if proposal.PaperID <= 0 {
		missing = append(missing, "paper_id")
	}
	if proposal.Session == "" {
		missing = append(missing, "session")
	}
	if proposal.Date == "" {
		missing = append(missing, "date")
	}
	if proposal.TimeSlot == "" {
		missing = append(missing, "time_slot")
	}
	if strings.TrimSpace(proposal.Track) == "" {
		missing = append(missing, "track")
	}
	if strings.TrimSpace(proposal.Mode) == "" {
		missing = append(missing, "mode")
	}
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrMissingField,
			fmt.Sprintf("paper %d: missing %s", proposal.PaperID, strings.Join(missing, ", ")))
	}
	return nil
}

func (s *SchedulerService) slotTaken(holder int64, proposal ScheduleProposal) error {
	domainErr := &models.SlotConflictError{
		Message: fmt.Sprintf("slot %s in %s on %s is already taken by paper %d",
			proposal.TimeSlot, proposal.Session, proposal.Date, holder),
		Conflict: models.SlotConflict{
			PaperID:  holder,
			Session:  proposal.Session,
			Date:     proposal.Date,
			TimeSlot: proposal.TimeSlot,
		},
	}
	return appErrors.Wrap(domainErr, appErrors.ErrSlotTaken.Code, appErrors.ErrSlotTaken.Status, domainErr.Message)
}
