// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	"go.uber.org/zap"

	uierrors "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/errors"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/audit"
)

// EventSource is the part of *audit.Store the list page reads.
type EventSource interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

type Handler struct {
	Events EventSource
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler reading from events.
func NewHandler(events EventSource, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Log:    logger,
		ErrLog: errLog,
	}
}
