package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitb777/conference-scheduler/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func assignmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "paper_id", "session", "date", "time_slot", "venue", "track", "mode",
		"status", "confirmation_token", "confirmation_expires", "created_at", "updated_at",
	})
}

func TestAssignmentRepositoryFindByPaperID(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := assignmentRows().
		AddRow("assign-1", int64(101), "Session 1", "2025-02-07", "2:40 PM - 4:30 PM",
			"AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 337",
			"Artificial Intelligence, Intelligent Systems and Automation", "offline",
			0, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, paper_id, session, date, time_slot, venue, track, mode, status, confirmation_token, confirmation_expires, created_at, updated_at FROM assignments WHERE paper_id = $1")).
		WithArgs(int64(101)).
		WillReturnRows(rows)

	assignment, err := repo.FindByPaperID(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, int64(101), assignment.PaperID)
	assert.Equal(t, models.StatusPending, assignment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindByPaperIDNotFound(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT .* FROM assignments WHERE paper_id").
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByPaperID(context.Background(), 999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindBySlot(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := assignmentRows().
		AddRow("assign-1", int64(101), "Session 1", "2025-02-07", "2:40 PM - 4:30 PM",
			"AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 337",
			"Artificial Intelligence, Intelligent Systems and Automation", "offline",
			0, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE date = $1 AND session = $2 AND time_slot = $3 AND paper_id <> $4 LIMIT 1")).
		WithArgs("2025-02-07", "Session 1", "2:40 PM - 4:30 PM", int64(0)).
		WillReturnRows(rows)

	assignment, err := repo.FindBySlot(context.Background(), "2025-02-07", "Session 1", "2:40 PM - 4:30 PM", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(101), assignment.PaperID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCountBySession(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE date = $1 AND session = $2 AND paper_id <> $3")).
		WithArgs("2025-02-07", "Session 1", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(14))

	count, err := repo.CountBySession(context.Background(), "2025-02-07", "Session 1", 0)
	require.NoError(t, err)
	assert.Equal(t, 14, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryInsertBatch(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assignments := []models.Assignment{
		{PaperID: 101, Session: "Session 1", Date: "2025-02-07", TimeSlot: "2:40 PM - 4:30 PM", Mode: "offline"},
		{PaperID: 102, Session: "Session 2", Date: "2025-02-07", TimeSlot: "2:40 PM - 4:30 PM", Mode: "online"},
	}
	require.NoError(t, repo.InsertBatch(context.Background(), assignments))
	assert.NotEmpty(t, assignments[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryInsertBatchRollsBack(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignments")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	assignments := []models.Assignment{
		{PaperID: 101, Session: "Session 1", Date: "2025-02-07", TimeSlot: "2:40 PM - 4:30 PM"},
		{PaperID: 102, Session: "Session 2", Date: "2025-02-07", TimeSlot: "2:40 PM - 4:30 PM"},
	}
	require.Error(t, repo.InsertBatch(context.Background(), assignments))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateSlot(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments")).
		WithArgs("Session 2", "2025-02-07", "2:40 PM - 4:30 PM",
			"AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 343",
			models.StatusPending, sqlmock.AnyArg(), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSlot(context.Background(), &models.Assignment{
		PaperID:  101,
		Session:  "Session 2",
		Date:     "2025-02-07",
		TimeSlot: "2:40 PM - 4:30 PM",
		Venue:    "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 343",
		Status:   models.StatusPending,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateSlotNotFound(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSlot(context.Background(), &models.Assignment{PaperID: 999})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE paper_id = $1")).
		WithArgs(int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 101))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryResolveStatusGuard(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	// the statement touches status only; the token column survives so a
	// replayed link can still find the settled row
	mock.ExpectExec(`UPDATE assignments\s+SET status = \$1, updated_at = \$2\s+WHERE id = \$3 AND status = \$4`).
		WithArgs(models.StatusConfirmed, sqlmock.AnyArg(), "assign-1", models.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// already resolved rows match zero rows under the status guard
	err := repo.ResolveStatus(context.Background(), "assign-1", models.StatusConfirmed)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositorySetToken(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	expires := time.Now().Add(48 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET confirmation_token = $1, confirmation_expires = $2, updated_at = $3 WHERE paper_id = $4")).
		WithArgs("token-1", expires, sqlmock.AnyArg(), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetToken(context.Background(), 101, "token-1", expires))
	assert.NoError(t, mock.ExpectationsWereMet())
}
