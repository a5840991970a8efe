package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrganization(name string) OrganizationInput {
	return OrganizationInput{
		Name:        name,
		Description: "Live music",
		Type:        "venue",
		Logo:        "https://cdn.example.com/logo.png",
		Categories:  []string{"music"},
	}
}

func TestOrganizationService_Create(t *testing.T) {
	svc := NewOrganizationService(newFakeOrganizationRepository())
	ctx := context.Background()

	org, err := svc.Create(ctx, 1, validOrganization("  Blue Note "))
	require.NoError(t, err)
	assert.Equal(t, "Blue Note", org.Name)
	assert.Equal(t, int64(1), org.CreatedBy)
	assert.Equal(t, int64(1), org.UpdatedBy)

	_, err = svc.Create(ctx, 2, validOrganization("Blue Note"))
	assertAppError(t, err, errOrganizationTaken)
}

func TestOrganizationService_CreateRequiresFields(t *testing.T) {
	svc := NewOrganizationService(newFakeOrganizationRepository())

	cases := map[string]func(*OrganizationInput){
		"name":        func(in *OrganizationInput) { in.Name = " " },
		"description": func(in *OrganizationInput) { in.Description = "" },
		"logo":        func(in *OrganizationInput) { in.Logo = "" },
		"categories":  func(in *OrganizationInput) { in.Categories = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validOrganization("Blue Note")
			mutate(&in)
			_, err := svc.Create(context.Background(), 1, in)
			assertAppError(t, err, errOrganizationFields)
		})
	}

	_, err := svc.Create(context.Background(), 1, validOrganization(strings.Repeat("n", 101)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must be at most 100 characters")
}

func TestOrganizationService_FirstAndList(t *testing.T) {
	svc := NewOrganizationService(newFakeOrganizationRepository())
	ctx := context.Background()

	first, err := svc.First(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, first)

	_, err = svc.Create(ctx, 1, validOrganization("Blue Note"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, validOrganization("Village Vanguard"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, validOrganization("Birdland"))
	require.NoError(t, err)

	first, err = svc.First(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Blue Note", first.Name)

	orgs, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, orgs, 2)
}

func TestOrganizationService_Update(t *testing.T) {
	svc := NewOrganizationService(newFakeOrganizationRepository())
	ctx := context.Background()

	org, err := svc.Create(ctx, 1, validOrganization("Blue Note"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, validOrganization("Birdland"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, 2, org.ID, validOrganization("Blue Note NYC"))
	assertAppError(t, err, errOrganizationOwner)

	_, err = svc.Update(ctx, 1, 999, validOrganization("Blue Note NYC"))
	assertAppError(t, err, errOrganizationNotFound)

	_, err = svc.Update(ctx, 1, org.ID, validOrganization("Birdland"))
	assertAppError(t, err, errOrganizationTaken)

	updated, err := svc.Update(ctx, 1, org.ID, validOrganization("Blue Note NYC"))
	require.NoError(t, err)
	assert.Equal(t, "Blue Note NYC", updated.Name)

	got, err := svc.Get(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Note NYC", got.Name)
}
