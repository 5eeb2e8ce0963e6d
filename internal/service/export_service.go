package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mohitb777/conference-scheduler/internal/catalog"
	"github.com/mohitb777/conference-scheduler/internal/models"
	appErrors "github.com/mohitb777/conference-scheduler/pkg/errors"
	"github.com/mohitb777/conference-scheduler/pkg/export"
)

type exportAssignmentLister interface {
	ListAll(ctx context.Context) ([]models.Assignment, error)
}

type exportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const scheduleCacheKey = "schedule:sections"

var exportHeaders = []string{"Paper ID", "Track", "Session", "Time Slot", "Venue", "Mode", "Status"}

// ExportService renders the full schedule as CSV or PDF, grouped per
// conference day. Section data is cached between exports and invalidated on
// every schedule mutation.
type ExportService struct {
	assignments exportAssignmentLister
	cache       exportCache
	catalog     *catalog.Catalog
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	title       string
	cacheTTL    time.Duration
	logger      *zap.Logger
}

func NewExportService(assignments exportAssignmentLister, cache exportCache, cat *catalog.Catalog, title string, cacheTTL time.Duration, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ExportService{
		assignments: assignments,
		cache:       cache,
		catalog:     cat,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		title:       title,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// ExportCSV renders the whole schedule as one CSV table with a Date column.
func (s *ExportService) ExportCSV(ctx context.Context) ([]byte, error) {
	sections, err := s.sections(ctx)
	if err != nil {
		return nil, err
	}

	flat := export.Dataset{Headers: append([]string{"Date"}, exportHeaders...)}
	for _, section := range sections {
		for _, row := range section.Data.Rows {
			record := make(map[string]string, len(row)+1)
			for k, v := range row {
				record[k] = v
			}
			record["Date"] = section.Heading
			flat.Rows = append(flat.Rows, record)
		}
	}

	data, err := s.csv.Render(flat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// ExportPDF renders the schedule as a landscape PDF, one section per day.
func (s *ExportService) ExportPDF(ctx context.Context) ([]byte, error) {
	sections, err := s.sections(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.pdf.Render(s.title, sections)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, nil
}

// Invalidate drops the cached section data after a schedule mutation.
func (s *ExportService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, scheduleCacheKey); err != nil {
		s.logger.Warn("failed to invalidate schedule cache", zap.Error(err))
	}
}

func (s *ExportService) sections(ctx context.Context) ([]export.Section, error) {
	if s.cache != nil {
		var cached []export.Section
		if err := s.cache.Get(ctx, scheduleCacheKey, &cached); err == nil {
			return cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("schedule cache read failed", zap.Error(err))
		}
	}

	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list assignments")
	}

	byDate := make(map[string][]models.Assignment)
	for _, a := range assignments {
		byDate[a.Date] = append(byDate[a.Date], a)
	}

	dates := s.catalog.Dates()
	// dates outside the catalog still export, after the known days
	var extra []string
	for date := range byDate {
		known := false
		for _, d := range dates {
			if d == date {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, date)
		}
	}
	sort.Strings(extra)
	dates = append(dates, extra...)

	sections := make([]export.Section, 0, len(dates))
	for _, date := range dates {
		rows := byDate[date]
		if len(rows) == 0 {
			continue
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Session != rows[j].Session {
				return rows[i].Session < rows[j].Session
			}
			return rows[i].PaperID < rows[j].PaperID
		})
		data := export.Dataset{Headers: exportHeaders}
		for _, a := range rows {
			data.Rows = append(data.Rows, map[string]string{
				"Paper ID":  strconv.FormatInt(a.PaperID, 10),
				"Track":     a.Track,
				"Session":   a.Session,
				"Time Slot": a.TimeSlot,
				"Venue":     a.Venue,
				"Mode":      a.Mode,
				"Status":    a.Status.String(),
			})
		}
		sections = append(sections, export.Section{
			Heading: fmt.Sprintf("Schedule for %s", date),
			Data:    data,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, scheduleCacheKey, sections, s.cacheTTL); err != nil {
			s.logger.Warn("schedule cache write failed", zap.Error(err))
		}
	}
	return sections, nil
}
