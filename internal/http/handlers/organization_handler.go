package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/service"
)

// OrganizationService: организации вендора.
type OrganizationService interface {
	Create(ctx context.Context, userID int64, in service.OrganizationInput) (*models.Organization, error)
	First(ctx context.Context, userID int64) (*models.Organization, error)
	List(ctx context.Context, userID int64) ([]models.Organization, error)
	Get(ctx context.Context, id int64) (*models.Organization, error)
	Update(ctx context.Context, userID, id int64, in service.OrganizationInput) (*models.Organization, error)
}

// OrganizationHandler обслуживает маршруты организаций.
type OrganizationHandler struct {
	orgs OrganizationService
}

// NewOrganizationHandler создаёт хэндлер.
func NewOrganizationHandler(orgs OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

// Create обрабатывает POST /create-organization.
func (h *OrganizationHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.OrganizationInput
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.orgs.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Organization created successfully", org)
}

// First обрабатывает GET /get-vendor-organization. Без организаций data равно null.
func (h *OrganizationHandler) First(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	org, err := h.orgs.First(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Organizations fetched successfully", org)
}

// List обрабатывает GET /get-all-vendor-organizations.
func (h *OrganizationHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	orgs, err := h.orgs.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Organizations fetched successfully", orgs)
}

// Update обрабатывает PUT /update-organization/:orgId.
func (h *OrganizationHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c, "orgId")
	if !ok {
		response.BadRequest(c, "Invalid organization ID")
		return
	}

	var req service.OrganizationInput
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.orgs.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Organization updated successfully", org)
}

// Get обрабатывает GET /get-organization-by-id/:orgId.
func (h *OrganizationHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "orgId")
	if !ok {
		response.BadRequest(c, "Invalid organization ID")
		return
	}

	org, err := h.orgs.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Organization fetched successfully", org)
}
