package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mohitb777/conference-scheduler/internal/models"
)

// PaperRepository reads submitted papers.
type PaperRepository struct {
	db *sqlx.DB
}

// NewPaperRepository constructs the repository.
func NewPaperRepository(db *sqlx.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

// FindByPaperID returns the paper with the external numeric id.
func (r *PaperRepository) FindByPaperID(ctx context.Context, paperID int64) (*models.Paper, error) {
	const query = `SELECT id, paper_id, email, contact, title, mode, track, created_at FROM papers WHERE paper_id = $1`
	var paper models.Paper
	if err := r.db.GetContext(ctx, &paper, query, paperID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find paper: %w", err)
	}
	return &paper, nil
}

// List returns papers with paging, optionally narrowed to a track or to
// papers without an assignment.
func (r *PaperRepository) List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if filter.Track != "" {
		args = append(args, strings.TrimSpace(filter.Track))
		conditions = append(conditions, fmt.Sprintf("LOWER(TRIM(p.track)) = LOWER(TRIM($%d))", len(args)))
	}
	if filter.Unscheduled {
		conditions = append(conditions, "NOT EXISTS (SELECT 1 FROM assignments a WHERE a.paper_id = p.paper_id)")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM papers p" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count papers: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	args = append(args, size, (page-1)*size)
	listQuery := fmt.Sprintf(
		"SELECT p.id, p.paper_id, p.email, p.contact, p.title, p.mode, p.track, p.created_at FROM papers p%s ORDER BY p.paper_id ASC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var papers []models.Paper
	if err := r.db.SelectContext(ctx, &papers, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list papers: %w", err)
	}
	return papers, total, nil
}

// Create inserts a new paper record.
func (r *PaperRepository) Create(ctx context.Context, paper *models.Paper) error {
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	if paper.CreatedAt.IsZero() {
		paper.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO papers (id, paper_id, email, contact, title, mode, track, created_at)
		VALUES (:id, :paper_id, :email, :contact, :title, :mode, :track, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, paper); err != nil {
		return fmt.Errorf("create paper: %w", err)
	}
	return nil
}
