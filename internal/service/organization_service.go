package service

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/pkg/apperror"
	"github.com/fairticket/ticketing-backend/internal/repository"
	"github.com/fairticket/ticketing-backend/internal/validation"
)

// OrganizationRepository описывает хранилище организаций.
type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id int64) (*models.Organization, error)
	ListByCreator(ctx context.Context, userID int64) ([]models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
}

// OrganizationInput: поля организации при создании и обновлении.
type OrganizationInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Logo        string   `json:"logo"`
	Categories  []string `json:"categories"`
}

// OrganizationService управляет организациями вендоров.
type OrganizationService struct {
	repo OrganizationRepository
}

// NewOrganizationService создаёт сервис организаций.
func NewOrganizationService(repo OrganizationRepository) *OrganizationService {
	return &OrganizationService{repo: repo}
}

const maxOrganizationNameLength = 100

var (
	errOrganizationFields   = apperror.Validation("Missing required fields: name, description, logo, categories")
	errOrganizationNotFound = apperror.NotFound("Organization not found")
	errOrganizationTaken    = apperror.Conflict("Organization name already exists")
	errOrganizationOwner    = apperror.Forbidden("You are not allowed to update this organization")
)

// Create сохраняет организацию от имени пользователя.
func (s *OrganizationService) Create(ctx context.Context, userID int64, in OrganizationInput) (*models.Organization, error) {
	if err := validateOrganization(in); err != nil {
		return nil, err
	}

	org := &models.Organization{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        in.Type,
		Logo:        in.Logo,
		Categories:  pq.StringArray(in.Categories),
		CreatedBy:   userID,
	}
	if err := s.repo.Create(ctx, org); err != nil {
		if errors.Is(err, repository.ErrOrganizationNameTaken) {
			return nil, errOrganizationTaken
		}
		return nil, apperror.Internal(err, "Internal server error while creating organization")
	}
	return org, nil
}

// First возвращает первую организацию пользователя или nil.
func (s *OrganizationService) First(ctx context.Context, userID int64) (*models.Organization, error) {
	orgs, err := s.List(ctx, userID)
	if err != nil || len(orgs) == 0 {
		return nil, err
	}
	return &orgs[0], nil
}

// List возвращает организации пользователя.
func (s *OrganizationService) List(ctx context.Context, userID int64) ([]models.Organization, error) {
	orgs, err := s.repo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err, "Internal server error")
	}
	return orgs, nil
}

// Get возвращает организацию по id.
func (s *OrganizationService) Get(ctx context.Context, id int64) (*models.Organization, error) {
	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			return nil, errOrganizationNotFound
		}
		return nil, apperror.Internal(err, "Internal server error")
	}
	return org, nil
}

// Update перезаписывает организацию. Менять её может только создатель.
func (s *OrganizationService) Update(ctx context.Context, userID, id int64, in OrganizationInput) (*models.Organization, error) {
	if err := validateOrganization(in); err != nil {
		return nil, err
	}

	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if org.CreatedBy != userID {
		return nil, errOrganizationOwner
	}

	org.Name = strings.TrimSpace(in.Name)
	org.Description = in.Description
	org.Logo = in.Logo
	org.Categories = pq.StringArray(in.Categories)
	org.UpdatedBy = userID

	if err := s.repo.Update(ctx, org); err != nil {
		switch {
		case errors.Is(err, repository.ErrOrganizationNameTaken):
			return nil, errOrganizationTaken
		case errors.Is(err, repository.ErrOrganizationNotFound):
			return nil, errOrganizationNotFound
		}
		return nil, apperror.Internal(err, "Internal server error while updating organization")
	}
	return org, nil
}

func validateOrganization(in OrganizationInput) error {
	if validation.AnyBlank(in.Name, in.Description, in.Logo) || len(in.Categories) == 0 {
		return errOrganizationFields
	}
	if err := validation.ValidateLength("name", strings.TrimSpace(in.Name), 1, maxOrganizationNameLength); err != nil {
		return apperror.Validation(err.Error())
	}
	return nil
}
