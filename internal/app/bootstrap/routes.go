// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	auditlogfeature "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/auditlog"
	dashboardfeature "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/dashboard"
	errorsfeature "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/errors"
	healthfeature "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/health"
	verificationsfeature "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/verifications"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/audit"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auditlog"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auth"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/metrics"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/ratelimit"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/reconcile"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/workflow"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the shared services (document
// gateway, reconciliation pass, workflow engine, audit logger, metrics) and
// mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, auth.DefaultTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	gw := docstore.NewMongo(deps.PabiliMongoDatabase)
	auditStore := audit.New(deps.PabiliMongoDatabase)
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Review:   appCfg.AuditLogReview,
		Security: appCfg.AuditLogSecurity,
	})

	pass := reconcile.NewPass(gw, logger, m)
	engine := workflow.New(workflow.Deps{
		Gateway:       gw,
		Pass:          pass,
		Audit:         auditLog,
		Metrics:       m,
		Log:           logger,
		ReviewerRoles: appCfg.ReviewerRoles,
	})

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.PabiliMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	// Pending-verification badge
	dashboardHandler := dashboardfeature.NewHandler(pass, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Verification queue and review actions
	csrf := verificationsfeature.CSRF([]byte(appCfg.CSRFKey), secure, auditLog)
	verificationsHandler := verificationsfeature.NewHandler(pass, engine, errLog, logger)
	verificationsHandler.Throttle = ratelimit.New(appCfg.ReviewRatePerMinute, appCfg.ReviewBurst)
	r.Mount(verificationsfeature.BasePath, verificationsfeature.Routes(verificationsHandler, sessionMgr, csrf, appCfg.ReviewerRoles...))

	// Audit trail of review and security events
	auditHandler := auditlogfeature.NewHandler(auditStore, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr, appCfg.ReviewerRoles...))

	return r, nil
}
