package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anganwadi-sewa/anganwadi-api/internal/models"
	"github.com/anganwadi-sewa/anganwadi-api/internal/service"
	appErrors "github.com/anganwadi-sewa/anganwadi-api/pkg/errors"
	"github.com/anganwadi-sewa/anganwadi-api/pkg/response"
)

type accessService interface {
	ListAdmins(ctx context.Context) ([]models.UserInfo, error)
	UpdateAccess(ctx context.Context, targetID string, req service.UpdateAccessRequest, actorID string, meta models.LoginRequest) (*models.UserInfo, error)
	UpdateRole(ctx context.Context, targetID string, req service.UpdateRoleRequest, actorID string, meta models.LoginRequest) (*models.UserInfo, error)
}

// AdminHandler exposes admin account management endpoints.
type AdminHandler struct {
	service accessService
}

// NewAdminHandler builds a new handler.
func NewAdminHandler(service accessService) *AdminHandler {
	return &AdminHandler{service: service}
}

// List godoc
// @Summary List admin accounts
// @Tags Admins
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	infos, err := h.service.ListAdmins(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, infos, nil)
}

// UpdateAccess godoc
// @Summary Replace an account's access set
// @Description Atomically replaces the access capabilities of the target account
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param payload body service.UpdateAccessRequest true "Access payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admins/{id}/access [put]
func (h *AdminHandler) UpdateAccess(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid access payload"))
		return
	}

	meta := models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	info, err := h.service.UpdateAccess(c.Request.Context(), c.Param("id"), req, claims.UserID, meta)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, info, nil)
}

// UpdateRole godoc
// @Summary Change an account's role
// @Description Assigns ADMIN or VIEWER to the target account
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param payload body service.UpdateRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admins/{id}/role [put]
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}

	meta := models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	info, err := h.service.UpdateRole(c.Request.Context(), c.Param("id"), req, claims.UserID, meta)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, info, nil)
}
