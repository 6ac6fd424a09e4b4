package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	OrgAuthorizer portssvc.OrganizationAuthorizerSvc
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// LogSecurityEvent records a rejected cross-tenant or unauthorized access at WARN.
func (s *BaseService) LogSecurityEvent(ctx context.Context, actx domain.ActorContext, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+3)
	args = append(args,
		slog.Bool("security_event", true),
		slog.String("organization_id", actx.OrganizationID),
		slog.String("actor_user_id", actx.ActorUserID))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Warn(msg, args...)
}

// Authorize validates the actor context and runs the organization guard.
func (s *BaseService) Authorize(ctx context.Context, actx domain.ActorContext, write bool) (*domain.Organization, error) {
	if err := actx.Validate(); err != nil {
		return nil, err
	}
	if s.OrgAuthorizer == nil {
		// Without a guard every call is refused.
		s.LogError(ctx, apperrors.ErrForbidden, "No organization authorizer configured",
			slog.String("organization_id", actx.OrganizationID))
		return nil, apperrors.ErrForbidden
	}
	return s.OrgAuthorizer.Authorize(ctx, actx, write)
}
