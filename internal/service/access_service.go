package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/anganwadi-sewa/anganwadi-api/internal/models"
	appErrors "github.com/anganwadi-sewa/anganwadi-api/pkg/errors"
)

type accessUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	UpdateAccess(ctx context.Context, id string, access []string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) (*models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UpdateAccessRequest carries the full replacement access set.
type UpdateAccessRequest struct {
	Access []string `json:"access" validate:"required"`
}

// UpdateRoleRequest carries the new role for the target account.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// AccessService mutates account roles and access-capability sets. Every
// operation assumes the caller was already asserted as SUPERADMIN by the
// authorization middleware.
//
// Concurrent updates against the same target account race at the store;
// the last write wins. No locking is applied.
type AccessService struct {
	repo      accessUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccessService creates an AccessService instance.
func NewAccessService(repo accessUserRepository, validate *validator.Validate, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AccessService{repo: repo, validator: validate, logger: logger}
}

// ListAdmins returns the public projections of all ADMIN accounts.
func (s *AccessService) ListAdmins(ctx context.Context) ([]models.UserInfo, error) {
	users, err := s.repo.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admins")
	}
	infos := make([]models.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].Public())
	}
	return infos, nil
}

// UpdateAccess replaces the target account's access set. The set is
// validated against the capability vocabulary and rejected whole on the
// first unknown value; the stored set is never partially applied.
func (s *AccessService) UpdateAccess(ctx context.Context, targetID string, req UpdateAccessRequest, actorID string, meta models.LoginRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access payload")
	}

	if err := validateAccessSet(req.Access); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	updated, err := s.repo.UpdateAccess(ctx, targetID, req.Access)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update access")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"access": existing.Access})
	newPayload, _ := json.Marshal(map[string]interface{}{"access": updated.Access})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionAccessUpdate,
		Resource:   "users",
		ResourceID: &updated.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record access update audit log", zap.Error(err))
	}

	info := updated.Public()
	return &info, nil
}

// UpdateRole assigns a new role to the target account. Only ADMIN and
// VIEWER are assignable; SUPERADMIN cannot be granted through this path.
func (s *AccessService) UpdateRole(ctx context.Context, targetID string, req UpdateRoleRequest, actorID string, meta models.LoginRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}

	role := models.UserRole(strings.ToUpper(req.Role))
	if _, ok := models.AssignableRoles[role]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid role %q", req.Role))
	}

	existing, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	updated, err := s.repo.UpdateRole(ctx, targetID, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"role": existing.Role})
	newPayload, _ := json.Marshal(map[string]interface{}{"role": updated.Role})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionRoleUpdate,
		Resource:   "users",
		ResourceID: &updated.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record role update audit log", zap.Error(err))
	}

	info := updated.Public()
	return &info, nil
}

// validateAccessSet checks every element against the capability
// vocabulary, naming the first offending value. The whole set is
// rejected atomically.
func validateAccessSet(access []string) error {
	for _, a := range access {
		if !models.Capability(a).IsValid() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown capability %q", a))
		}
	}
	return nil
}
