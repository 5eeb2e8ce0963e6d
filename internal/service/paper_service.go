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

type paperRepository interface {
	FindByPaperID(ctx context.Context, paperID int64) (*models.Paper, error)
	List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error)
	Create(ctx context.Context, paper *models.Paper) error
}

// CreatePaperRequest registers an accepted paper in the intake table.
type CreatePaperRequest struct {
	PaperID int64  `json:"paper_id" validate:"required,gt=0"`
	Email   string `json:"email" validate:"required,email"`
	Contact string `json:"contact" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Mode    string `json:"mode" validate:"required,oneof=online offline"`
	Track   string `json:"track" validate:"required"`
}

// PaperService handles paper intake and the track-scoped queries the
// scheduling screens are built from.
type PaperService struct {
	papers    paperRepository
	catalog   *catalog.Catalog
	validator *validator.Validate
	logger    *zap.Logger
}

func NewPaperService(papers paperRepository, cat *catalog.Catalog, validate *validator.Validate, logger *zap.Logger) *PaperService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaperService{papers: papers, catalog: cat, validator: validate, logger: logger}
}

// Create registers a paper. The track must be one of the conference tracks.
func (s *PaperService) Create(ctx context.Context, req CreatePaperRequest) (*models.Paper, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid paper payload")
	}

	if !s.catalog.IsTrack(req.Track) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown track %q", req.Track))
	}

	if _, err := s.papers.FindByPaperID(ctx, req.PaperID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicatePaper, fmt.Sprintf("paper %d is already registered", req.PaperID))
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to check paper")
	}

	paper := &models.Paper{
		PaperID: req.PaperID,
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Contact: strings.TrimSpace(req.Contact),
		Title:   strings.TrimSpace(req.Title),
		Mode:    strings.ToLower(req.Mode),
		Track:   strings.TrimSpace(req.Track),
	}
	if err := s.papers.Create(ctx, paper); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to create paper")
	}

	s.logger.Info("paper registered", zap.Int64("paper_id", paper.PaperID), zap.String("track", paper.Track))
	return paper, nil
}

// Get returns a paper by its submission number.
func (s *PaperService) Get(ctx context.Context, paperID int64) (*models.Paper, error) {
	paper, err := s.papers.FindByPaperID(ctx, paperID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrPaperNotFound, fmt.Sprintf("paper %d not found", paperID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load paper")
	}
	return paper, nil
}

// List returns papers matching the filter with a pagination envelope.
func (s *PaperService) List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.Track != "" && !s.catalog.IsTrack(filter.Track) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown track %q", filter.Track))
	}

	papers, total, err := s.papers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list papers")
	}

	totalPages := total / filter.PageSize
	if total%filter.PageSize > 0 {
		totalPages++
	}
	pagination := &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
	return papers, pagination, nil
}
