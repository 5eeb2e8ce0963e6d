package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohitb777/conference-scheduler/internal/catalog"
	"github.com/mohitb777/conference-scheduler/internal/models"
	"github.com/mohitb777/conference-scheduler/internal/service"
)

type memoryAssignmentStore struct {
	byPaper map[int64]*models.Assignment
}

func newMemoryAssignmentStore() *memoryAssignmentStore {
	return &memoryAssignmentStore{byPaper: make(map[int64]*models.Assignment)}
}

func (s *memoryAssignmentStore) ListAll(ctx context.Context) ([]models.Assignment, error) {
	out := make([]models.Assignment, 0, len(s.byPaper))
	for _, a := range s.byPaper {
		out = append(out, *a)
	}
	return out, nil
}

func (s *memoryAssignmentStore) FindByPaperID(ctx context.Context, paperID int64) (*models.Assignment, error) {
	if a, ok := s.byPaper[paperID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *memoryAssignmentStore) FindBySlot(ctx context.Context, date, session, timeSlot string, excludePaperID int64) (*models.Assignment, error) {
	for _, a := range s.byPaper {
		if a.Date == date && a.Session == session && a.TimeSlot == timeSlot && a.PaperID != excludePaperID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memoryAssignmentStore) CountBySession(ctx context.Context, date, session string, excludePaperID int64) (int, error) {
	count := 0
	for _, a := range s.byPaper {
		if a.Date == date && a.Session == session && a.PaperID != excludePaperID {
			count++
		}
	}
	return count, nil
}

func (s *memoryAssignmentStore) InsertBatch(ctx context.Context, assignments []models.Assignment) error {
	for i := range assignments {
		cp := assignments[i]
		s.byPaper[cp.PaperID] = &cp
	}
	return nil
}

func (s *memoryAssignmentStore) UpdateSlot(ctx context.Context, assignment *models.Assignment) error {
	if _, ok := s.byPaper[assignment.PaperID]; !ok {
		return sql.ErrNoRows
	}
	cp := *assignment
	s.byPaper[cp.PaperID] = &cp
	return nil
}

func (s *memoryAssignmentStore) Delete(ctx context.Context, paperID int64) error {
	if _, ok := s.byPaper[paperID]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byPaper, paperID)
	return nil
}

type memoryPaperStore struct {
	papers map[int64]*models.Paper
}

func (s *memoryPaperStore) FindByPaperID(ctx context.Context, paperID int64) (*models.Paper, error) {
	if p, ok := s.papers[paperID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func buildScheduleRouter(store *memoryAssignmentStore, papers *memoryPaperStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cat := catalog.New("2025-02-07", "2025-02-08")
	scheduler := service.NewSchedulerService(store, papers, cat, 15, validator.New(), zap.NewNop())
	exports := service.NewExportService(store, nil, cat, "RAMSITA 2025", 5*time.Minute, zap.NewNop())
	metrics := service.NewMetricsService()
	h := NewScheduleHandler(scheduler, exports, metrics)

	r := gin.New()
	r.GET("/schedules", h.List)
	r.GET("/schedules/check-availability", h.CheckAvailability)
	r.GET("/schedules/session-capacity", h.SessionCapacity)
	r.GET("/schedules/:paperId", h.Get)
	r.POST("/schedules", h.Create)
	r.PUT("/schedules/:paperId", h.Reschedule)
	r.DELETE("/schedules/:paperId", h.Delete)
	return r
}

func performRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func aiTestPaper(paperID int64) *models.Paper {
	return &models.Paper{
		PaperID: paperID,
		Email:   "author@example.com",
		Title:   fmt.Sprintf("Paper %d", paperID),
		Mode:    models.ModeOffline,
		Track:   catalog.TrackAI,
	}
}

func proposalBody(paperID int64, session string) []byte {
	body, _ := json.Marshal([]service.ScheduleProposal{{
		PaperID:  paperID,
		Session:  session,
		Date:     "2025-02-07",
		TimeSlot: catalog.TimeSlotAfternoon,
		Track:    catalog.TrackAI,
		Mode:     models.ModeOffline,
	}})
	return body
}

func TestScheduleHandlerCreate(t *testing.T) {
	store := newMemoryAssignmentStore()
	papers := &memoryPaperStore{papers: map[int64]*models.Paper{101: aiTestPaper(101)}}
	router := buildScheduleRouter(store, papers)

	req, _ := http.NewRequest(http.MethodPost, "/schedules", bytes.NewBuffer(proposalBody(101, "Session 1")))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), `"paper_id":101`)
	assert.Len(t, store.byPaper, 1)
}

func TestScheduleHandlerCreateSlotTaken(t *testing.T) {
	store := newMemoryAssignmentStore()
	store.byPaper[101] = &models.Assignment{
		PaperID:  101,
		Session:  "Session 1",
		Date:     "2025-02-07",
		TimeSlot: catalog.TimeSlotAfternoon,
	}
	papers := &memoryPaperStore{papers: map[int64]*models.Paper{102: aiTestPaper(102)}}
	router := buildScheduleRouter(store, papers)

	req, _ := http.NewRequest(http.MethodPost, "/schedules", bytes.NewBuffer(proposalBody(102, "Session 1")))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "SLOT_TAKEN")
	assert.Len(t, store.byPaper, 1)
}

func TestScheduleHandlerCreateInvalidPayload(t *testing.T) {
	router := buildScheduleRouter(newMemoryAssignmentStore(), &memoryPaperStore{})

	req, _ := http.NewRequest(http.MethodPost, "/schedules", bytes.NewBufferString(`{"not":"an array"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestScheduleHandlerCheckAvailability(t *testing.T) {
	store := newMemoryAssignmentStore()
	router := buildScheduleRouter(store, &memoryPaperStore{})

	req, _ := http.NewRequest(http.MethodGet,
		"/schedules/check-availability?date=2025-02-07&session=Session+1&timeSlot=2%3A40+PM+-+4%3A30+PM", nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"is_available":true`)
}

func TestScheduleHandlerCheckAvailabilityMissingParams(t *testing.T) {
	router := buildScheduleRouter(newMemoryAssignmentStore(), &memoryPaperStore{})

	req, _ := http.NewRequest(http.MethodGet, "/schedules/check-availability?date=2025-02-07", nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "MISSING_FIELD")
}

func TestScheduleHandlerDelete(t *testing.T) {
	store := newMemoryAssignmentStore()
	store.byPaper[101] = &models.Assignment{PaperID: 101}
	router := buildScheduleRouter(store, &memoryPaperStore{})

	req, _ := http.NewRequest(http.MethodDelete, "/schedules/101", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusNoContent, resp.Code)

	req, _ = http.NewRequest(http.MethodDelete, "/schedules/101", nil)
	resp = performRequest(router, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestScheduleHandlerGetInvalidPaperID(t *testing.T) {
	router := buildScheduleRouter(newMemoryAssignmentStore(), &memoryPaperStore{})

	req, _ := http.NewRequest(http.MethodGet, "/schedules/abc", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
