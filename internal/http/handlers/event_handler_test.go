package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/pkg/apperror"
	"github.com/fairticket/ticketing-backend/internal/service"
)

// mockEventService: методы, не задействованные в тестах, берутся из встроенного интерфейса.
type mockEventService struct {
	EventService
	mock.Mock
}

func (m *mockEventService) Create(ctx context.Context, userID, orgID int64, in service.CreateEventInput) (*models.Event, error) {
	args := m.Called(ctx, userID, orgID, in)
	res, _ := args.Get(0).(*models.Event)
	return res, args.Error(1)
}

func (m *mockEventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*models.Event)
	return res, args.Error(1)
}

func (m *mockEventService) TogglePublished(ctx context.Context, userID, id int64) (*models.Event, error) {
	args := m.Called(ctx, userID, id)
	res, _ := args.Get(0).(*models.Event)
	return res, args.Error(1)
}

func (m *mockEventService) Filter(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	args := m.Called(ctx, f)
	res, _ := args.Get(0).([]models.Event)
	return res, args.Error(1)
}

func (m *mockEventService) Search(ctx context.Context, text string) ([]models.Event, error) {
	args := m.Called(ctx, text)
	res, _ := args.Get(0).([]models.Event)
	return res, args.Error(1)
}

func (m *mockEventService) Upcoming(ctx context.Context, eventType, category string) ([]models.Event, error) {
	args := m.Called(ctx, eventType, category)
	res, _ := args.Get(0).([]models.Event)
	return res, args.Error(1)
}

func newEventRouter(events EventService) *gin.Engine {
	h := NewEventHandler(events)
	r := gin.New()
	r.GET("/get-event-by-id/:event_id", h.Get)
	r.GET("/get-events-by-search-query", h.Search)
	r.GET("/get-upcoming-events", h.Upcoming)
	authed := r.Group("/", withUser(5))
	authed.POST("/create-event/:org_id", h.Create)
	authed.PUT("/mark-event-as-published/:event_id", h.TogglePublished)
	authed.GET("/filter-user-events", h.Filter)
	return r
}

func TestEventHandler_Create(t *testing.T) {
	events := &mockEventService{}
	r := newEventRouter(events)

	w := doJSON(r, http.MethodPost, "/create-event/abc", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/create-event/3", `{"event_title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgInvalidBody, decode(t, w).Message)

	missing := apperror.Validation("Missing required fields.").WithDetail("Missing required fields: currency")
	events.On("Create", mock.Anything, int64(5), int64(3), mock.MatchedBy(func(in service.CreateEventInput) bool {
		return in.Currency == ""
	})).Return(nil, missing).Once()

	w = doJSON(r, http.MethodPost, "/create-event/3", `{"event_title":"Jazz Night"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "Missing required fields.", env.Message)
	assert.Equal(t, "Missing required fields: currency", env.Error)

	body := `{"event_title":"Jazz Night","event_type":"Single Day","currency":"EUR",
		"date_times":[{"date":"2024-06-01","stime":"19:00","etime":"23:00"}],
		"price_starting_range":0,"price_ending_range":50}`
	events.On("Create", mock.Anything, int64(5), int64(3), mock.MatchedBy(func(in service.CreateEventInput) bool {
		return in.PriceStartingRange != nil && *in.PriceStartingRange == 0 && len(in.DateTimes) == 1 &&
			in.DateTimes[0].STime == "19:00"
	})).Return(&models.Event{ID: 9, EventTitle: "Jazz Night"}, nil).Once()

	w = doJSON(r, http.MethodPost, "/create-event/3", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Event created successfully.", decode(t, w).Message)
	events.AssertExpectations(t)
}

func TestEventHandler_Get(t *testing.T) {
	events := &mockEventService{}
	r := newEventRouter(events)

	w := doJSON(r, http.MethodGet, "/get-event-by-id/0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgInvalidEventID, decode(t, w).Message)

	events.On("Get", mock.Anything, int64(404)).Return(nil, apperror.NotFound("Event not found.")).Once()
	w = doJSON(r, http.MethodGet, "/get-event-by-id/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Event not found.", decode(t, w).Message)

	events.On("Get", mock.Anything, int64(9)).Return(&models.Event{ID: 9}, nil).Once()
	w = doJSON(r, http.MethodGet, "/get-event-by-id/9", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Event fetched successfully.", decode(t, w).Message)
}

func TestEventHandler_TogglePublishedMessage(t *testing.T) {
	events := &mockEventService{}
	r := newEventRouter(events)

	events.On("TogglePublished", mock.Anything, int64(5), int64(9)).Return(&models.Event{ID: 9, IsPublished: true}, nil).Once()
	w := doJSON(r, http.MethodPut, "/mark-event-as-published/9", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Event marked as published.", decode(t, w).Message)

	events.On("TogglePublished", mock.Anything, int64(5), int64(9)).Return(&models.Event{ID: 9}, nil).Once()
	w = doJSON(r, http.MethodPut, "/mark-event-as-published/9", "")
	assert.Equal(t, "Event marked as unpublished.", decode(t, w).Message)

	events.On("TogglePublished", mock.Anything, int64(5), int64(10)).
		Return(nil, apperror.Forbidden("You are not allowed to modify this event.")).Once()
	w = doJSON(r, http.MethodPut, "/mark-event-as-published/10", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEventHandler_FilterParsesQuery(t *testing.T) {
	events := &mockEventService{}
	r := newEventRouter(events)

	w := doJSON(r, http.MethodGet, "/filter-user-events?price_starting_range=cheap", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid price_starting_range.", decode(t, w).Message)

	low := 10.0
	want := models.EventFilter{UserID: 5, Title: "jazz", PriceStart: &low, StartDate: "2024-06-01", EndTime: "23:00"}
	events.On("Filter", mock.Anything, want).Return([]models.Event{{ID: 1}}, nil).Once()

	w = doJSON(r, http.MethodGet,
		"/filter-user-events?title=jazz&price_starting_range=10&start_date=2024-06-01&end_time=23:00", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Filtered events fetched successfully.", decode(t, w).Message)
	events.AssertExpectations(t)
}

func TestEventHandler_PublicLists(t *testing.T) {
	events := &mockEventService{}
	r := newEventRouter(events)

	events.On("Search", mock.Anything, "jazz").Return([]models.Event{{ID: 1}}, nil).Once()
	w := doJSON(r, http.MethodGet, "/get-events-by-search-query?search=jazz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Events retrieved successfully", decode(t, w).Message)

	events.On("Search", mock.Anything, "opera").
		Return(nil, apperror.NotFound("No events found matching the search criteria")).Once()
	w = doJSON(r, http.MethodGet, "/get-events-by-search-query?search=opera", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	events.On("Upcoming", mock.Anything, "Single Day", "music").Return([]models.Event{}, nil).Once()
	w = doJSON(r, http.MethodGet, "/get-upcoming-events?type=Single+Day&category=music", "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, msgEventsFetched, env.Message)
	assert.Equal(t, []interface{}{}, env.Data)
	events.AssertExpectations(t)
}
