package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/dto"
	"github.com/SscSPs/hera_engine/internal/middleware"
)

// organizationHandler handles tenant onboarding and membership.
type organizationHandler struct {
	orgService portssvc.OrganizationSvcFacade
}

func newOrganizationHandler(svc portssvc.OrganizationSvcFacade) *organizationHandler {
	return &organizationHandler{orgService: svc}
}

// registerOrganizationRoutes registers routes related to organizations.
func registerOrganizationRoutes(rg *gin.RouterGroup, orgService portssvc.OrganizationSvcFacade) {
	h := newOrganizationHandler(orgService)

	orgs := rg.Group("/organizations")
	{
		orgs.POST("", h.createOrganization)
		orgs.GET("/:organization_id", h.getOrganization)
		orgs.POST("/:organization_id/members", h.addMember)
	}
}

// createOrganization godoc
// @Summary Create an organization
// @Description Onboards a tenant; the owner becomes its first OWNER member.
// @Tags organizations
// @Accept  json
// @Produce  json
// @Param   organization body dto.CreateOrganizationRequest true "Organization details"
// @Success 201 {object} dto.Envelope{data=domain.Organization}
// @Failure 400 {object} dto.Envelope
// @Failure 403 {object} dto.Envelope "owner_user_id is not the caller"
// @Failure 409 {object} dto.Envelope "organization_code already taken"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /organizations [post]
func (h *organizationHandler) createOrganization(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateOrganization", slog.String("error", err.Error()))
		respondBindError(c, err)
		return
	}
	owner, ok := resolveActor(c, req.OwnerUserID)
	if !ok {
		return
	}
	req.OwnerUserID = owner

	org, err := h.orgService.CreateOrganization(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Info("Organization created", slog.String("organization_id", org.OrganizationID), slog.String("owner_user_id", owner))
	c.JSON(http.StatusCreated, dto.OK(org))
}

// getOrganization godoc
// @Summary Get an organization
// @Tags organizations
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   actor_user_id query string false "Acting user; defaults to the caller"
// @Success 200 {object} dto.Envelope{data=domain.Organization}
// @Failure 403 {object} dto.Envelope
// @Failure 404 {object} dto.Envelope
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /organizations/{organization_id} [get]
func (h *organizationHandler) getOrganization(c *gin.Context) {
	actx, ok := actorContext(c, c.Query("actor_user_id"))
	if !ok {
		return
	}
	org, err := h.orgService.GetOrganization(c.Request.Context(), actx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(org))
}

// addMemberBody is the HTTP body of addMember.
type addMemberBody struct {
	dto.AddMemberRequest
	ActorUserID string `json:"actor_user_id"`
}

// addMember godoc
// @Summary Add or change a member
// @Description Grants user_id a role; only OWNER and ADMIN members may call it.
// @Tags organizations
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   member body dto.AddMemberRequest true "Membership"
// @Success 200 {object} dto.Envelope{data=domain.OrganizationMember}
// @Failure 400 {object} dto.Envelope
// @Failure 403 {object} dto.Envelope
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /organizations/{organization_id}/members [post]
func (h *organizationHandler) addMember(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var body addMemberBody
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Warn("Failed to bind JSON for AddMember", slog.String("error", err.Error()))
		respondBindError(c, err)
		return
	}
	actx, ok := actorContext(c, body.ActorUserID)
	if !ok {
		return
	}
	member, err := h.orgService.AddMember(c.Request.Context(), actx, body.AddMemberRequest)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(member))
}

func actorContext(c *gin.Context, claimed string) (domain.ActorContext, bool) {
	actor, ok := resolveActor(c, claimed)
	if !ok {
		return domain.ActorContext{}, false
	}
	return domain.ActorContext{OrganizationID: c.Param("organization_id"), ActorUserID: actor}, true
}
