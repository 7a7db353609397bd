package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anganwadi-sewa/anganwadi-api/internal/middleware"
	"github.com/anganwadi-sewa/anganwadi-api/internal/models"
	"github.com/anganwadi-sewa/anganwadi-api/internal/service"
	appErrors "github.com/anganwadi-sewa/anganwadi-api/pkg/errors"
)

type accessServiceMock struct {
	listResp   []models.UserInfo
	listErr    error
	updateResp *models.UserInfo
	updateErr  error

	lastTargetID string
	lastActorID  string
	lastAccess   []string
	lastRole     string
}

func (m *accessServiceMock) ListAdmins(ctx context.Context) ([]models.UserInfo, error) {
	return m.listResp, m.listErr
}

func (m *accessServiceMock) UpdateAccess(ctx context.Context, targetID string, req service.UpdateAccessRequest, actorID string, meta models.LoginRequest) (*models.UserInfo, error) {
	m.lastTargetID = targetID
	m.lastActorID = actorID
	m.lastAccess = req.Access
	return m.updateResp, m.updateErr
}

func (m *accessServiceMock) UpdateRole(ctx context.Context, targetID string, req service.UpdateRoleRequest, actorID string, meta models.LoginRequest) (*models.UserInfo, error) {
	m.lastTargetID = targetID
	m.lastActorID = actorID
	m.lastRole = req.Role
	return m.updateResp, m.updateErr
}

func superAdminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}
}

func TestAdminHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &accessServiceMock{listResp: []models.UserInfo{{ID: "u1", Email: "a@example.com"}}}
	h := NewAdminHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/admins", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, superAdminClaims())

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@example.com")
}

func TestAdminHandlerUpdateAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &accessServiceMock{updateResp: &models.UserInfo{ID: "u1", Access: []string{"state"}}}
	h := NewAdminHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/admins/u1/access", bytes.NewBufferString(`{"access":["state"]}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "u1"}}
	c.Set(middleware.ContextUserKey, superAdminClaims())

	h.UpdateAccess(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", mockSvc.lastTargetID)
	assert.Equal(t, "root", mockSvc.lastActorID)
	assert.Equal(t, []string{"state"}, mockSvc.lastAccess)
}

func TestAdminHandlerUpdateAccessWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &accessServiceMock{}
	h := NewAdminHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/admins/u1/access", bytes.NewBufferString(`{"access":[]}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "u1"}}

	h.UpdateAccess(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, mockSvc.lastTargetID)
}

func TestAdminHandlerUpdateAccessNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &accessServiceMock{updateErr: appErrors.ErrNotFound}
	h := NewAdminHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/admins/missing/access", bytes.NewBufferString(`{"access":["state"]}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, superAdminClaims())

	h.UpdateAccess(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandlerUpdateRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &accessServiceMock{updateResp: &models.UserInfo{ID: "u1", Role: models.RoleViewer}}
	h := NewAdminHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/admins/u1/role", bytes.NewBufferString(`{"role":"VIEWER"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "u1"}}
	c.Set(middleware.ContextUserKey, superAdminClaims())

	h.UpdateRole(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "VIEWER", mockSvc.lastRole)
}

func TestAdminHandlerUpdateRoleInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &accessServiceMock{}
	h := NewAdminHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/admins/u1/role", bytes.NewBufferString(`{"role":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "u1"}}
	c.Set(middleware.ContextUserKey, superAdminClaims())

	h.UpdateRole(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
