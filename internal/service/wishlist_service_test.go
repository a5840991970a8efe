package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairticket/ticketing-backend/internal/models"
)

func newWishlistFixture() (*WishlistService, *fakeEventRepository, int64, int64) {
	events := newFakeEventRepository()
	first := events.add(models.Event{EventTitle: "Jazz Night", UserID: 7})
	second := events.add(models.Event{EventTitle: "Rock Fest", UserID: 7})
	return NewWishlistService(newFakeWishlistRepository(), events), events, first, second
}

func eventIDs(events []models.Event) []int64 {
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestWishlistService_Toggle(t *testing.T) {
	svc, _, first, second := newWishlistFixture()
	ctx := context.Background()

	_, err := svc.Get(ctx, 1)
	assertAppError(t, err, errWishlistNotFound)

	res, err := svc.Toggle(ctx, 1, first)
	require.NoError(t, err)
	assert.Equal(t, WishlistCreated, res.Action)
	assert.Equal(t, []int64{first}, res.EventIDs)

	res, err = svc.Toggle(ctx, 1, second)
	require.NoError(t, err)
	assert.Equal(t, WishlistAdded, res.Action)
	assert.Equal(t, []int64{first, second}, res.EventIDs)

	res, err = svc.Toggle(ctx, 1, first)
	require.NoError(t, err)
	assert.Equal(t, WishlistRemoved, res.Action)
	assert.Equal(t, []int64{second}, res.EventIDs)

	events, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Rock Fest", events[0].EventTitle)

	_, err = svc.Toggle(ctx, 1, second)
	require.NoError(t, err)
	events, err = svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotNil(t, events)
}

func TestWishlistService_InvalidEventID(t *testing.T) {
	svc, _, _, _ := newWishlistFixture()

	_, err := svc.Toggle(context.Background(), 1, 0)
	assertAppError(t, err, errInvalidEventID)
}

func TestWishlistService_UnknownEventIsNotAdded(t *testing.T) {
	svc, _, first, _ := newWishlistFixture()
	ctx := context.Background()

	_, err := svc.Toggle(ctx, 1, 999)
	assertAppError(t, err, errEventNotFound)
	_, err = svc.Get(ctx, 1)
	assertAppError(t, err, errWishlistNotFound)

	_, err = svc.Toggle(ctx, 1, first)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, 1, 999)
	assertAppError(t, err, errEventNotFound)

	events, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{first}, eventIDs(events))
}

func TestWishlistService_GetSkipsDeletedEvents(t *testing.T) {
	svc, events, first, second := newWishlistFixture()
	ctx := context.Background()

	_, err := svc.Toggle(ctx, 1, second)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, 1, first)
	require.NoError(t, err)

	events.mu.Lock()
	events.events[second].IsDeleted = true
	events.mu.Unlock()

	got, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{first}, eventIDs(got))

	// Удалённое событие можно убрать из вишлиста.
	res, err := svc.Toggle(ctx, 1, second)
	require.NoError(t, err)
	assert.Equal(t, WishlistRemoved, res.Action)
}
