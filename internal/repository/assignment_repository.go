package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mohitb777/conference-scheduler/internal/models"
)

// AssignmentRepository persists presentation assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, paper_id, session, date, time_slot, venue, track, mode, status, confirmation_token, confirmation_expires, created_at, updated_at`

// ListAll returns every assignment ordered by day, session and slot.
func (r *AssignmentRepository) ListAll(ctx context.Context) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments ORDER BY date ASC, session ASC, time_slot ASC`, assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// FindByPaperID returns the assignment for a paper, sql.ErrNoRows otherwise.
func (r *AssignmentRepository) FindByPaperID(ctx context.Context, paperID int64) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE paper_id = $1`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, paperID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find assignment by paper: %w", err)
	}
	return &assignment, nil
}

// FindBySlot returns the assignment occupying the slot, excluding the given
// paper so reschedules do not collide with themselves.
func (r *AssignmentRepository) FindBySlot(ctx context.Context, date, session, timeSlot string, excludePaperID int64) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE date = $1 AND session = $2 AND time_slot = $3 AND paper_id <> $4 LIMIT 1`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, date, session, timeSlot, excludePaperID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find assignment by slot: %w", err)
	}
	return &assignment, nil
}

// CountBySession returns the occupancy of a (date, session) pair excluding
// the given paper.
func (r *AssignmentRepository) CountBySession(ctx context.Context, date, session string, excludePaperID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE date = $1 AND session = $2 AND paper_id <> $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, date, session, excludePaperID); err != nil {
		return 0, fmt.Errorf("count session assignments: %w", err)
	}
	return count, nil
}

// InsertBatch inserts all assignments inside one transaction. Either every
// row commits or none does.
func (r *AssignmentRepository) InsertBatch(ctx context.Context, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment batch: %w", err)
	}

	const query = `INSERT INTO assignments (id, paper_id, session, date, time_slot, venue, track, mode, status, confirmation_token, confirmation_expires, created_at, updated_at)
		VALUES (:id, :paper_id, :session, :date, :time_slot, :venue, :track, :mode, :status, :confirmation_token, :confirmation_expires, :created_at, :updated_at)`

	now := time.Now().UTC()
	for i := range assignments {
		if assignments[i].ID == "" {
			assignments[i].ID = uuid.NewString()
		}
		if assignments[i].CreatedAt.IsZero() {
			assignments[i].CreatedAt = now
		}
		assignments[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, assignments[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert assignment for paper %d: %w", assignments[i].PaperID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment batch: %w", err)
	}
	return nil
}

// UpdateSlot rewrites the slot portion of an assignment, resets its status to
// pending and drops any outstanding confirmation token.
func (r *AssignmentRepository) UpdateSlot(ctx context.Context, assignment *models.Assignment) error {
	const query = `UPDATE assignments
		SET session = $1, date = $2, time_slot = $3, venue = $4, status = $5,
		    confirmation_token = NULL, confirmation_expires = NULL, updated_at = $6
		WHERE paper_id = $7`
	result, err := r.db.ExecContext(ctx, query,
		assignment.Session, assignment.Date, assignment.TimeSlot, assignment.Venue,
		assignment.Status, time.Now().UTC(), assignment.PaperID)
	if err != nil {
		return fmt.Errorf("update assignment slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the assignment for a paper.
func (r *AssignmentRepository) Delete(ctx context.Context, paperID int64) error {
	const query = `DELETE FROM assignments WHERE paper_id = $1`
	result, err := r.db.ExecContext(ctx, query, paperID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByToken looks up an assignment by its confirmation token.
func (r *AssignmentRepository) FindByToken(ctx context.Context, token string) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE confirmation_token = $1`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find assignment by token: %w", err)
	}
	return &assignment, nil
}

// SetToken stores a freshly issued confirmation token and its expiry.
func (r *AssignmentRepository) SetToken(ctx context.Context, paperID int64, token string, expires time.Time) error {
	const query = `UPDATE assignments SET confirmation_token = $1, confirmation_expires = $2, updated_at = $3 WHERE paper_id = $4`
	result, err := r.db.ExecContext(ctx, query, token, expires, time.Now().UTC(), paperID)
	if err != nil {
		return fmt.Errorf("set confirmation token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check token update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ResolveStatus records the author's decision. The status guard keeps a
// second resolution from overwriting the first. The token column is left in
// place so a replayed link still finds the row and can report the settled
// state; the guard makes the token useless for further transitions.
func (r *AssignmentRepository) ResolveStatus(ctx context.Context, id string, status models.AssignmentStatus) error {
	const query = `UPDATE assignments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id, models.StatusPending)
	if err != nil {
		return fmt.Errorf("resolve assignment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resolved assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListWithoutToken returns assignments that never had a confirmation mail
// sent.
func (r *AssignmentRepository) ListWithoutToken(ctx context.Context) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE confirmation_token IS NULL AND status = $1 ORDER BY date ASC, session ASC`, assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, models.StatusPending); err != nil {
		return nil, fmt.Errorf("list assignments without token: %w", err)
	}
	return assignments, nil
}
