// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP ports,
// TLS, logging level and request limits. AppConfig carries what is
// specific to the verification console.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database holding the app profiles and verification collections
	MongoMaxPoolSize uint64 // Maximum connections in the driver pool

	// Session management configuration. Sessions are issued by the console's
	// sign-in service; this app only reads them, so the key and name must match.
	SessionKey    string // Secret key for verifying session cookies
	SessionName   string // Cookie name for sessions (default: pabili-session)
	SessionDomain string // Cookie domain (blank means current host)

	// CSRFKey signs anti-forgery tokens on review forms. Exactly 32 bytes.
	CSRFKey string

	// Audit logging destinations: "all", "db", "log" or "off"
	AuditLogReview   string
	AuditLogSecurity string

	// ReviewerRoles are the operator roles allowed to approve, reject and unverify.
	ReviewerRoles []string

	// Per-operator review throttle; ReviewRatePerMinute <= 0 disables it
	ReviewRatePerMinute int
	ReviewBurst         int

	// Handler timeouts (zero keeps the default)
	PingTimeout   time.Duration
	ReadTimeout   time.Duration
	PassTimeout   time.Duration
	ReviewTimeout time.Duration
}
