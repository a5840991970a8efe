package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/service"
)

// EventService: события организаций.
type EventService interface {
	Create(ctx context.Context, userID, orgID int64, in service.CreateEventInput) (*models.Event, error)
	Get(ctx context.Context, id int64) (*models.Event, error)
	Update(ctx context.Context, userID, id int64, upd *models.EventUpdate) (*models.Event, error)
	TogglePublished(ctx context.Context, userID, id int64) (*models.Event, error)
	ToggleFeatured(ctx context.Context, userID, id int64) (*models.Event, error)
	ListByOrg(ctx context.Context, orgID int64) ([]models.Event, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Event, error)
	ListFeatured(ctx context.Context, userID int64) ([]models.Event, error)
	ListAll(ctx context.Context) ([]models.Event, error)
	ListRecent(ctx context.Context) ([]models.Event, error)
	Filter(ctx context.Context, f models.EventFilter) ([]models.Event, error)
	Search(ctx context.Context, text string) ([]models.Event, error)
	Upcoming(ctx context.Context, eventType, category string) ([]models.Event, error)
}

const (
	msgInvalidEventID = "Invalid event ID."
	msgEventsFetched  = "Events fetched successfully."
)

// EventHandler обслуживает маршруты событий.
type EventHandler struct {
	events EventService
}

// NewEventHandler создаёт хэндлер.
func NewEventHandler(events EventService) *EventHandler {
	return &EventHandler{events: events}
}

// Create обрабатывает POST /create-event/:org_id.
func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	orgID, ok := parseIDParam(c, "org_id")
	if !ok {
		response.BadRequest(c, "Invalid organization ID or user authentication failed.")
		return
	}

	var req service.CreateEventInput
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.events.Create(c.Request.Context(), userID, orgID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Event created successfully.", event)
}

// Get обрабатывает GET /get-event-by-id/:event_id.
func (h *EventHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "event_id")
	if !ok {
		response.BadRequest(c, msgInvalidEventID)
		return
	}

	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Event fetched successfully.", event)
}

// Update обрабатывает PUT /update-event/:event_id.
func (h *EventHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c, "event_id")
	if !ok {
		response.BadRequest(c, msgInvalidEventID)
		return
	}

	var req models.EventUpdate
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.events.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Event updated successfully.", event)
}

// TogglePublished обрабатывает PUT /mark-event-as-published/:event_id.
func (h *EventHandler) TogglePublished(c *gin.Context) {
	h.toggle(c, h.events.TogglePublished, func(e *models.Event) string {
		if e.IsPublished {
			return "Event marked as published."
		}
		return "Event marked as unpublished."
	})
}

// ToggleFeatured обрабатывает PUT /mark-event-as-featured/:event_id.
func (h *EventHandler) ToggleFeatured(c *gin.Context) {
	h.toggle(c, h.events.ToggleFeatured, func(e *models.Event) string {
		if e.IsFeatured {
			return "Event marked as featured."
		}
		return "Event marked as unfeatured."
	})
}

func (h *EventHandler) toggle(
	c *gin.Context,
	fn func(ctx context.Context, userID, id int64) (*models.Event, error),
	message func(*models.Event) string,
) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c, "event_id")
	if !ok {
		response.BadRequest(c, msgInvalidEventID)
		return
	}

	event, err := fn(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, message(event), event)
}

// ListByOrg обрабатывает GET /get-events-by-org-id/:org_id.
func (h *EventHandler) ListByOrg(c *gin.Context) {
	orgID, ok := parseIDParam(c, "org_id")
	if !ok {
		response.BadRequest(c, "Invalid organization ID.")
		return
	}
	h.reply(c, msgEventsFetched)(h.events.ListByOrg(c.Request.Context(), orgID))
}

// ListByUser обрабатывает GET /get-all-user-events.
func (h *EventHandler) ListByUser(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	h.reply(c, msgEventsFetched)(h.events.ListByUser(c.Request.Context(), userID))
}

// ListFeatured обрабатывает GET /get-all-featured-events.
func (h *EventHandler) ListFeatured(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	h.reply(c, msgEventsFetched)(h.events.ListFeatured(c.Request.Context(), userID))
}

// ListAll обрабатывает GET /get-all-events.
func (h *EventHandler) ListAll(c *gin.Context) {
	h.reply(c, msgEventsFetched)(h.events.ListAll(c.Request.Context()))
}

// ListRecent обрабатывает GET /get-recently-created-events.
func (h *EventHandler) ListRecent(c *gin.Context) {
	h.reply(c, msgEventsFetched)(h.events.ListRecent(c.Request.Context()))
}

// Search обрабатывает GET /get-events-by-search-query?search=.
func (h *EventHandler) Search(c *gin.Context) {
	h.reply(c, "Events retrieved successfully")(h.events.Search(c.Request.Context(), c.Query("search")))
}

// Upcoming обрабатывает GET /get-upcoming-events?type=&category=.
func (h *EventHandler) Upcoming(c *gin.Context) {
	h.reply(c, msgEventsFetched)(h.events.Upcoming(c.Request.Context(), c.Query("type"), c.Query("category")))
}

// Filter обрабатывает GET /filter-user-events.
func (h *EventHandler) Filter(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	filter := models.EventFilter{
		UserID:      userID,
		Title:       c.Query("title"),
		Description: c.Query("description"),
		StartDate:   c.Query("start_date"),
		EndDate:     c.Query("end_date"),
		StartTime:   c.Query("start_time"),
		EndTime:     c.Query("end_time"),
	}

	if filter.PriceStart, ok = queryFloat(c, "price_starting_range"); !ok {
		response.BadRequest(c, "Invalid price_starting_range.")
		return
	}
	if filter.PriceEnd, ok = queryFloat(c, "price_ending_range"); !ok {
		response.BadRequest(c, "Invalid price_ending_range.")
		return
	}

	h.reply(c, "Filtered events fetched successfully.")(h.events.Filter(c.Request.Context(), filter))
}

// reply отвечает списком событий или ошибкой сервиса.
func (h *EventHandler) reply(c *gin.Context, message string) func([]models.Event, error) {
	return func(events []models.Event, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, message, events)
	}
}

// queryFloat читает необязательный числовой query-параметр. Пустое значение даёт nil.
func queryFloat(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}
