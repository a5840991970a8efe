package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/pkg/apperror"
)

func price(v float64) *float64 { return &v }

func validEventInput() CreateEventInput {
	return CreateEventInput{
		EventTitle: "Jazz Night",
		EventType:  models.EventTypeSingleDay,
		DateTimes: models.EventDateTimes{
			{Date: "2024-06-01", STime: "19:00", ETime: "23:00"},
		},
		PriceStartingRange: price(10),
		PriceEndingRange:   price(50),
		Currency:           "EUR",
	}
}

func newEventFixture(t *testing.T) (*EventService, *fakeEventRepository, int64) {
	t.Helper()
	orgs := newFakeOrganizationRepository()
	events := newFakeEventRepository()
	org, err := NewOrganizationService(orgs).Create(context.Background(), 1, validOrganization("Blue Note"))
	require.NoError(t, err)
	return NewEventService(events, orgs), events, org.ID
}

func TestEventService_Create(t *testing.T) {
	svc, events, orgID := newEventFixture(t)

	event, err := svc.Create(context.Background(), 1, orgID, validEventInput())
	require.NoError(t, err)
	assert.False(t, event.IsPublished)
	require.NotNil(t, event.OrganizationName)
	assert.Equal(t, "Blue Note", *event.OrganizationName)
	assert.NotNil(t, event.EventTags)
	assert.NotNil(t, event.Images)

	stored := events.stored(event.ID)
	assert.Equal(t, int64(1), stored.CreatedBy)
	assert.Equal(t, orgID, stored.OrgID)
}

func TestEventService_CreateRejectsInvalidInput(t *testing.T) {
	svc, _, orgID := newEventFixture(t)

	cases := []struct {
		name   string
		mutate func(*CreateEventInput)
		want   *apperror.AppError
	}{
		{"missing title", func(in *CreateEventInput) { in.EventTitle = "" }, errEventFields},
		{"missing price", func(in *CreateEventInput) { in.PriceEndingRange = nil }, errEventFields},
		{"missing date_times", func(in *CreateEventInput) { in.DateTimes = nil }, errEventFields},
		{"bad date", func(in *CreateEventInput) { in.DateTimes[0].Date = "01/06/2024" }, errEventDateTimes},
		{"bad time", func(in *CreateEventInput) { in.DateTimes[0].STime = "7pm" }, errEventDateTimes},
		{"bad type", func(in *CreateEventInput) { in.EventType = "Weekly" }, errEventType},
		{"reversed prices", func(in *CreateEventInput) { in.PriceStartingRange = price(60) }, errEventPriceRange},
		{"negative price", func(in *CreateEventInput) { in.PriceStartingRange = price(-1) }, errEventPriceRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validEventInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), 1, orgID, in)
			assertAppError(t, err, tc.want)
		})
	}
}

func TestEventService_CreateListsMissingFields(t *testing.T) {
	svc, _, orgID := newEventFixture(t)

	_, err := svc.Create(context.Background(), 1, orgID, CreateEventInput{EventTitle: "Jazz Night"})
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t,
		"Missing required fields: event_type, date_times, price_starting_range, price_ending_range, currency",
		appErr.Detail)
}

func TestEventService_CreateUnknownOrganization(t *testing.T) {
	svc, _, _ := newEventFixture(t)

	_, err := svc.Create(context.Background(), 1, 999, validEventInput())
	assertAppError(t, err, errEventOrganization)
}

func TestEventService_UpdateOnlyByCreator(t *testing.T) {
	svc, _, orgID := newEventFixture(t)
	ctx := context.Background()

	event, err := svc.Create(ctx, 1, orgID, validEventInput())
	require.NoError(t, err)

	title := "Late Jazz Night"
	_, err = svc.Update(ctx, 2, event.ID, &models.EventUpdate{EventTitle: &title})
	assertAppError(t, err, errEventOwner)

	_, err = svc.Update(ctx, 1, event.ID, &models.EventUpdate{})
	assertAppError(t, err, errEventNoChanges)

	_, err = svc.Update(ctx, 1, 999, &models.EventUpdate{EventTitle: &title})
	assertAppError(t, err, errEventNotFound)

	// Новая нижняя граница сравнивается с сохранённой верхней.
	_, err = svc.Update(ctx, 1, event.ID, &models.EventUpdate{PriceStartingRange: price(80)})
	assertAppError(t, err, errEventPriceRange)

	updated, err := svc.Update(ctx, 1, event.ID, &models.EventUpdate{EventTitle: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.EventTitle)
	assert.Equal(t, int64(1), updated.UpdatedBy)
}

func TestEventService_TogglePublishedAndFeatured(t *testing.T) {
	svc, _, orgID := newEventFixture(t)
	ctx := context.Background()

	event, err := svc.Create(ctx, 1, orgID, validEventInput())
	require.NoError(t, err)

	_, err = svc.TogglePublished(ctx, 2, event.ID)
	assertAppError(t, err, errEventOwner)

	toggled, err := svc.TogglePublished(ctx, 1, event.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsPublished)
	toggled, err = svc.TogglePublished(ctx, 1, event.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPublished)

	toggled, err = svc.ToggleFeatured(ctx, 1, event.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsFeatured)

	featured, err := svc.ListFeatured(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, featured, 1)
}

func TestEventService_Search(t *testing.T) {
	svc, events, _ := newEventFixture(t)
	ctx := context.Background()

	events.add(models.Event{EventTitle: "Jazz Night", IsPublished: true})
	events.add(models.Event{EventTitle: "Rock Fest"})

	all, err := svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	found, err := svc.Search(ctx, "jazz")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Jazz Night", found[0].EventTitle)

	_, err = svc.Search(ctx, "opera")
	assertAppError(t, err, errEventSearchEmpty)
}

func TestEventService_UpcomingKeepsFutureDays(t *testing.T) {
	svc, events, _ := newEventFixture(t)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC) }

	day := func(date string) models.EventDateTimes {
		return models.EventDateTimes{{Date: date, STime: "19:00", ETime: "23:00"}}
	}
	events.add(models.Event{EventTitle: "Past", IsPublished: true, DateTimes: day("2024-05-31")})
	events.add(models.Event{EventTitle: "Today", IsPublished: true, DateTimes: day("2024-06-01")})
	events.add(models.Event{EventTitle: "Tomorrow", IsPublished: true, DateTimes: day("2024-06-02"),
		EventType: models.EventTypeSingleDay, EventTags: models.EventTags{"Jazz"}})
	events.add(models.Event{EventTitle: "Draft", DateTimes: day("2024-07-01")})

	upcoming, err := svc.Upcoming(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Tomorrow", upcoming[0].EventTitle)

	upcoming, err = svc.Upcoming(context.Background(), models.EventTypeMultipleDays, "")
	require.NoError(t, err)
	assert.Empty(t, upcoming)

	upcoming, err = svc.Upcoming(context.Background(), "", "jazz")
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)
}

func TestEventService_FilterValidatesRange(t *testing.T) {
	svc, events, _ := newEventFixture(t)
	ctx := context.Background()

	_, err := svc.Filter(ctx, models.EventFilter{UserID: 1, StartDate: "June 1"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Filter(ctx, models.EventFilter{UserID: 1, EndTime: "25:00"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	f := models.EventFilter{UserID: 1, Title: "jazz", StartDate: "2024-06-01", StartTime: "18:00"}
	_, err = svc.Filter(ctx, f)
	require.NoError(t, err)
	require.Len(t, events.filters, 1)
	assert.Equal(t, f, events.filters[0])
}

func TestEventService_ListFailure(t *testing.T) {
	svc, events, _ := newEventFixture(t)
	events.listErr = errors.New("connection reset")

	_, err := svc.ListAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, 500, apperror.StatusOf(err))
}
