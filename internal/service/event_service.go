package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/pkg/apperror"
	"github.com/fairticket/ticketing-backend/internal/repository"
	"github.com/fairticket/ticketing-backend/internal/validation"
)

// EventRepository описывает хранилище событий.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Event, error)
	ListByOrg(ctx context.Context, orgID int64) ([]models.Event, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Event, error)
	ListFeaturedByUser(ctx context.Context, userID int64) ([]models.Event, error)
	ListAll(ctx context.Context) ([]models.Event, error)
	ListRecent(ctx context.Context, limit int) ([]models.Event, error)
	Search(ctx context.Context, text string, limit int) ([]models.Event, error)
	ListPublished(ctx context.Context, eventType, category string) ([]models.Event, error)
	Filter(ctx context.Context, f models.EventFilter) ([]models.Event, error)
	Update(ctx context.Context, id, updatedBy int64, upd *models.EventUpdate) (*models.Event, error)
	ToggleFlag(ctx context.Context, id int64, flag string) (*models.Event, error)
}

// OrganizationReader: чтение организации для проверки при создании события.
type OrganizationReader interface {
	GetByID(ctx context.Context, id int64) (*models.Organization, error)
}

// CreateEventInput: поля нового события. Цены указателями, чтобы отличать 0 от отсутствия.
type CreateEventInput struct {
	EventTitle         string                `json:"event_title"`
	EventType          string                `json:"event_type"`
	DateTimes          models.EventDateTimes `json:"date_times"`
	PriceStartingRange *float64              `json:"price_starting_range"`
	PriceEndingRange   *float64              `json:"price_ending_range"`
	Currency           string                `json:"currency"`
	EventDesc          string                `json:"event_desc"`
	EventTags          models.EventTags      `json:"event_tags"`
	Images             models.EventImages    `json:"images"`
	Video              string                `json:"video"`
}

// Лимиты выборок.
const (
	SearchEventsLimit = 30
	RecentEventsLimit = 4
)

// EventService содержит бизнес-логику событий.
type EventService struct {
	repo EventRepository
	orgs OrganizationReader
	now  func() time.Time
}

// NewEventService создаёт сервис событий.
func NewEventService(repo EventRepository, orgs OrganizationReader) *EventService {
	return &EventService{repo: repo, orgs: orgs, now: time.Now}
}

var (
	errEventFields       = apperror.Validation("Missing required fields.")
	errEventDateTimes    = apperror.Validation("Invalid date_times format.")
	errEventType         = apperror.Validation("Invalid event_type.")
	errEventPriceRange   = apperror.Validation("Invalid price range.")
	errEventNoChanges    = apperror.Validation("No fields to update.")
	errEventNotFound     = apperror.NotFound("Event not found.")
	errEventOwner        = apperror.Forbidden("You are not allowed to modify this event.")
	errEventSearchEmpty  = apperror.NotFound("No events found matching the search criteria")
	errEventOrganization = apperror.NotFound("Organization not found")
)

// Create сохраняет неопубликованное событие организации.
func (s *EventService) Create(ctx context.Context, userID, orgID int64, in CreateEventInput) (*models.Event, error) {
	if missing := missingEventFields(in); len(missing) > 0 {
		return nil, errEventFields.WithDetail("Missing required fields: " + strings.Join(missing, ", "))
	}
	if err := validateEventFields(&in.EventTitle, &in.EventType, &in.Currency); err != nil {
		return nil, err
	}
	if err := validateDateTimes(in.DateTimes); err != nil {
		return nil, err
	}
	if err := validatePriceRange(*in.PriceStartingRange, *in.PriceEndingRange); err != nil {
		return nil, err
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			return nil, errEventOrganization
		}
		return nil, apperror.Internal(err, "Failed to create event.")
	}

	event := &models.Event{
		OrgID:              orgID,
		UserID:             userID,
		EventTitle:         strings.TrimSpace(in.EventTitle),
		EventType:          in.EventType,
		DateTimes:          in.DateTimes,
		PriceStartingRange: *in.PriceStartingRange,
		PriceEndingRange:   *in.PriceEndingRange,
		Currency:           in.Currency,
		EventDesc:          in.EventDesc,
		EventTags:          in.EventTags,
		Images:             in.Images,
		Video:              in.Video,
	}
	if event.EventTags == nil {
		event.EventTags = models.EventTags{}
	}
	if event.Images == nil {
		event.Images = models.EventImages{}
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, apperror.Internal(err, "Failed to create event.")
	}
	event.OrganizationName = &org.Name
	return event, nil
}

// Get возвращает событие по id.
func (s *EventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, errEventNotFound
		}
		return nil, apperror.Internal(err, "Failed to fetch event.")
	}
	return event, nil
}

// Update применяет изменения создателя события.
func (s *EventService) Update(ctx context.Context, userID, id int64, upd *models.EventUpdate) (*models.Event, error) {
	if upd == nil || upd.IsEmpty() {
		return nil, errEventNoChanges
	}
	if err := validateEventFields(upd.EventTitle, upd.EventType, upd.Currency); err != nil {
		return nil, err
	}
	if upd.DateTimes != nil {
		if err := validateDateTimes(*upd.DateTimes); err != nil {
			return nil, err
		}
	}

	current, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	start, end := current.PriceStartingRange, current.PriceEndingRange
	if upd.PriceStartingRange != nil {
		start = *upd.PriceStartingRange
	}
	if upd.PriceEndingRange != nil {
		end = *upd.PriceEndingRange
	}
	if err := validatePriceRange(start, end); err != nil {
		return nil, err
	}

	event, err := s.repo.Update(ctx, id, userID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, errEventNotFound
		}
		return nil, apperror.Internal(err, "Failed to update event.")
	}
	return event, nil
}

// TogglePublished переключает публикацию события.
func (s *EventService) TogglePublished(ctx context.Context, userID, id int64) (*models.Event, error) {
	return s.toggle(ctx, userID, id, repository.EventFlagPublished, "Failed to mark event as published.")
}

// ToggleFeatured переключает отметку «избранное» у события.
func (s *EventService) ToggleFeatured(ctx context.Context, userID, id int64) (*models.Event, error) {
	return s.toggle(ctx, userID, id, repository.EventFlagFeatured, "Failed to mark event as featured.")
}

func (s *EventService) toggle(ctx context.Context, userID, id int64, flag, failure string) (*models.Event, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}

	event, err := s.repo.ToggleFlag(ctx, id, flag)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, errEventNotFound
		}
		return nil, apperror.Internal(err, failure)
	}
	return event, nil
}

// owned возвращает событие, если его создал userID.
func (s *EventService) owned(ctx context.Context, userID, id int64) (*models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.UserID != userID {
		return nil, errEventOwner
	}
	return event, nil
}

// ListByOrg возвращает события организации.
func (s *EventService) ListByOrg(ctx context.Context, orgID int64) ([]models.Event, error) {
	return s.list(s.repo.ListByOrg(ctx, orgID))
}

// ListByUser возвращает события пользователя с именем организации.
func (s *EventService) ListByUser(ctx context.Context, userID int64) ([]models.Event, error) {
	return s.list(s.repo.ListByUser(ctx, userID))
}

// ListFeatured возвращает избранные события пользователя.
func (s *EventService) ListFeatured(ctx context.Context, userID int64) ([]models.Event, error) {
	return s.list(s.repo.ListFeaturedByUser(ctx, userID))
}

// ListAll возвращает все события.
func (s *EventService) ListAll(ctx context.Context) ([]models.Event, error) {
	return s.list(s.repo.ListAll(ctx))
}

// ListRecent возвращает последние опубликованные события.
func (s *EventService) ListRecent(ctx context.Context) ([]models.Event, error) {
	return s.list(s.repo.ListRecent(ctx, RecentEventsLimit))
}

// Filter возвращает события пользователя по фильтру.
func (s *EventService) Filter(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	for field, value := range map[string]string{"start_date": f.StartDate, "end_date": f.EndDate} {
		if err := validation.ValidateDate(field, value); err != nil {
			return nil, apperror.Validation(err.Error())
		}
	}
	for field, value := range map[string]string{"start_time": f.StartTime, "end_time": f.EndTime} {
		if value == "" {
			continue
		}
		if err := validation.ValidateTime(field, value); err != nil {
			return nil, apperror.Validation(err.Error())
		}
	}
	return s.list(s.repo.Filter(ctx, f))
}

// Search ищет события по названию. Пустой запрос отдаёт опубликованные события.
func (s *EventService) Search(ctx context.Context, text string) ([]models.Event, error) {
	text = strings.TrimSpace(text)
	events, err := s.list(s.repo.Search(ctx, text, SearchEventsLimit))
	if err != nil {
		return nil, err
	}
	if text != "" && len(events) == 0 {
		return nil, errEventSearchEmpty
	}
	return events, nil
}

// Upcoming возвращает опубликованные события, у которых остался хотя бы один день после сегодняшнего.
func (s *EventService) Upcoming(ctx context.Context, eventType, category string) ([]models.Event, error) {
	events, err := s.list(s.repo.ListPublished(ctx, strings.TrimSpace(eventType), strings.TrimSpace(category)))
	if err != nil {
		return nil, err
	}

	today := s.now()
	upcoming := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.DateTimes.Upcoming(today) {
			upcoming = append(upcoming, e)
		}
	}
	return upcoming, nil
}

func (s *EventService) list(events []models.Event, err error) ([]models.Event, error) {
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch events.")
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func missingEventFields(in CreateEventInput) []string {
	var missing []string
	if strings.TrimSpace(in.EventTitle) == "" {
		missing = append(missing, "event_title")
	}
	if strings.TrimSpace(in.EventType) == "" {
		missing = append(missing, "event_type")
	}
	if len(in.DateTimes) == 0 {
		missing = append(missing, "date_times")
	}
	if in.PriceStartingRange == nil {
		missing = append(missing, "price_starting_range")
	}
	if in.PriceEndingRange == nil {
		missing = append(missing, "price_ending_range")
	}
	if strings.TrimSpace(in.Currency) == "" {
		missing = append(missing, "currency")
	}
	return missing
}

// validateEventFields проверяет переданные строковые поля. nil пропускается.
func validateEventFields(title, eventType, currency *string) error {
	if title != nil {
		if err := validation.ValidateLength("event_title", strings.TrimSpace(*title), 1, validation.MaxTitleLength); err != nil {
			return apperror.Validation(err.Error())
		}
	}
	if eventType != nil && *eventType != models.EventTypeSingleDay && *eventType != models.EventTypeMultipleDays {
		return errEventType
	}
	if currency != nil {
		if err := validation.ValidateLength("currency", strings.TrimSpace(*currency), 1, validation.MaxCurrencyLength); err != nil {
			return apperror.Validation(err.Error())
		}
	}
	return nil
}

func validateDateTimes(days models.EventDateTimes) error {
	if len(days) == 0 {
		return errEventDateTimes
	}
	for _, day := range days {
		if day.Date == "" || validation.ValidateDate("date", day.Date) != nil ||
			validation.ValidateTime("stime", day.STime) != nil ||
			validation.ValidateTime("etime", day.ETime) != nil {
			return errEventDateTimes
		}
	}
	return nil
}

func validatePriceRange(start, end float64) error {
	if start < 0 || end < start {
		return errEventPriceRange
	}
	return nil
}
