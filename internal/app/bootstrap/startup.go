// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/timeouts"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.PingTimeout,
		Read:   appCfg.ReadTimeout,
		Pass:   appCfg.PassTimeout,
		Review: appCfg.ReviewTimeout,
	})

	cur := timeouts.Current()
	logger.Info("handler timeouts configured",
		zap.Duration("ping", cur.Ping),
		zap.Duration("read", cur.Read),
		zap.Duration("pass", cur.Pass),
		zap.Duration("review", cur.Review))
	return nil
}
