package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/repository/common"
)

var (
	// ErrOrganizationNotFound возвращается, когда организация не найдена.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrOrganizationNameTaken возвращается при нарушении уникальности имени.
	ErrOrganizationNameTaken = errors.New("organization name already taken")
)

const (
	organizationsNameConstraint = "organizations_name_key"
	organizationColumns         = `id, name, description, type, logo, categories, created_by, updated_by, created_at, updated_at`
)

// OrganizationRepository отвечает за работу с таблицей organizations.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository создаёт экземпляр репозитория.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create сохраняет организацию и заполняет id и временные метки.
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (name, description, type, logo, categories, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, updated_by, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		org.Name, org.Description, org.Type, org.Logo, org.Categories, org.CreatedBy,
	).Scan(&org.ID, &org.UpdatedBy, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return mapOrganizationWriteError("create", err)
	}
	return nil
}

// GetByID возвращает организацию по id.
func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*models.Organization, error) {
	return r.getOne(ctx, "get by id", `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
}

// GetByName возвращает организацию по точному имени.
func (r *OrganizationRepository) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	return r.getOne(ctx, "get by name", `SELECT `+organizationColumns+` FROM organizations WHERE name = $1`, name)
}

// ListByCreator возвращает организации пользователя в порядке создания.
func (r *OrganizationRepository) ListByCreator(ctx context.Context, userID int64) ([]models.Organization, error) {
	orgs := []models.Organization{}
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE created_by = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &orgs, query, userID); err != nil {
		return nil, fmt.Errorf("organization repository: list by creator %w", err)
	}
	return orgs, nil
}

// Update перезаписывает описательные поля организации.
func (r *OrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, description = $2, logo = $3, categories = $4, updated_by = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + organizationColumns

	err := r.db.GetContext(ctx, org, query, org.Name, org.Description, org.Logo, org.Categories, org.UpdatedBy, org.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrganizationNotFound
		}
		return mapOrganizationWriteError("update", err)
	}
	return nil
}

func (r *OrganizationRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (*models.Organization, error) {
	org, err := common.GetOne[models.Organization](ctx, r.db, ErrOrganizationNotFound, query, args...)
	if err != nil && !errors.Is(err, ErrOrganizationNotFound) {
		return nil, fmt.Errorf("organization repository: %s %w", op, err)
	}
	return org, err
}

func mapOrganizationWriteError(op string, err error) error {
	if constraint, ok := common.UniqueViolation(err); ok && constraint == organizationsNameConstraint {
		return ErrOrganizationNameTaken
	}
	return fmt.Errorf("organization repository: %s %w", op, err)
}
