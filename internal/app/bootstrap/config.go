// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/timeouts"
)

// appConfigKeys defines the configuration keys for the verification console.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PABILI_MONGO_URI, PABILI_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "pabili", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 50, Desc: "MongoDB max connection pool size (default: 50)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key shared with the sign-in service"},
	{Name: "session_name", Default: "pabili-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "csrf_key", Default: "dev-only-csrf-key-0123456789abcd", Desc: "CSRF token key (exactly 32 bytes)"},

	// Audit logging settings
	{Name: "audit_log_review", Default: "all", Desc: "Review event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_security", Default: "all", Desc: "Security event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Review authorization
	{Name: "reviewer_roles", Default: "admin", Desc: "Comma-separated operator roles allowed to review verifications"},

	{Name: "review_rate_per_minute", Default: 30, Desc: "Review actions allowed per operator per minute (0 disables)"},
	{Name: "review_burst", Default: 10, Desc: "Review actions an operator may make back to back"},

	// Handler timeouts
	{Name: "timeout_ping", Default: timeouts.DefaultPing.String(), Desc: "Health check timeout"},
	{Name: "timeout_read", Default: timeouts.DefaultRead.String(), Desc: "Single read timeout"},
	{Name: "timeout_pass", Default: timeouts.DefaultPass.String(), Desc: "Reconciliation pass timeout"},
	{Name: "timeout_review", Default: timeouts.DefaultReview.String(), Desc: "Review action timeout"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, PABILI_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PABILI", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		CSRFKey:          appValues.String("csrf_key"),

		// Audit logging
		AuditLogReview:   appValues.String("audit_log_review"),
		AuditLogSecurity: appValues.String("audit_log_security"),

		ReviewerRoles: parseRoles(appValues.String("reviewer_roles")),

		ReviewRatePerMinute: appValues.Int("review_rate_per_minute"),
		ReviewBurst:         appValues.Int("review_burst"),

		PingTimeout:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
		ReadTimeout:   appValues.Duration("timeout_read", timeouts.DefaultRead),
		PassTimeout:   appValues.Duration("timeout_pass", timeouts.DefaultPass),
		ReviewTimeout: appValues.Duration("timeout_review", timeouts.DefaultReview),
	}

	return coreCfg, appCfg, nil
}

// parseRoles splits a comma-separated role list, dropping blanks and
// duplicates. Roles compare case-insensitively.
func parseRoles(s string) []string {
	seen := map[string]bool{}
	var out []string
	for _, part := range strings.Split(s, ",") {
		role := strings.ToLower(strings.TrimSpace(part))
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		out = append(out, role)
	}
	return out
}

var auditDestinations = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	var problems []string
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		problems = append(problems, "mongo_database is required")
	}
	if appCfg.SessionKey == "" {
		problems = append(problems, "session_key is required")
	}
	if len(appCfg.CSRFKey) != 32 {
		problems = append(problems, fmt.Sprintf("csrf_key must be exactly 32 bytes (got %d)", len(appCfg.CSRFKey)))
	}
	if !auditDestinations[appCfg.AuditLogReview] {
		problems = append(problems, fmt.Sprintf("audit_log_review: unknown destination %q", appCfg.AuditLogReview))
	}
	if !auditDestinations[appCfg.AuditLogSecurity] {
		problems = append(problems, fmt.Sprintf("audit_log_security: unknown destination %q", appCfg.AuditLogSecurity))
	}
	if len(appCfg.ReviewerRoles) == 0 {
		problems = append(problems, "reviewer_roles must name at least one role")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
