// internal/app/features/verifications/handler.go
package verifications

import (
	"go.uber.org/zap"

	uierrors "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/errors"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/ratelimit"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/reconcile"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/workflow"
)

// BasePath is where the router mounts this feature. Actions redirect here.
const BasePath = "/verifications"

// Handler serves the operator verification queue and its review actions.
type Handler struct {
	Pass   *reconcile.Pass
	Engine *workflow.Engine
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger

	// Throttle limits review actions per operator. Nil means unlimited.
	Throttle *ratelimit.Limiter
}

// NewHandler constructs a verifications Handler.
func NewHandler(pass *reconcile.Pass, engine *workflow.Engine, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Pass:   pass,
		Engine: engine,
		ErrLog: errLog,
		Log:    logger,
	}
}
