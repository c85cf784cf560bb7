// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/audit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Review controls logging for verification review events (approve, reject, unverify).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Review string
	// Security controls logging for denied reviews and rejected form posts.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Security string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case "db"
// destinations are skipped.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

type requestMetaKey struct{}

type requestMeta struct {
	ip        string
	userAgent string
}

// WithRequest stores the client address and user agent of r in ctx so events
// logged further down the call chain carry them.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, requestMeta{
		ip:        getClientIP(r),
		userAgent: r.UserAgent(),
	})
}

func metaFrom(ctx context.Context) requestMeta {
	m, _ := ctx.Value(requestMetaKey{}).(requestMeta)
	return m
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr, without the port
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.SubjectID != "" {
		fields = append(fields, zap.String("subject_id", event.SubjectID))
	}
	if event.ItemID != "" {
		fields = append(fields, zap.String("item_id", event.ItemID))
	}
	if event.ArchiveID != "" {
		fields = append(fields, zap.String("archive_id", event.ArchiveID))
	}
	if event.ActionID != "" {
		fields = append(fields, zap.String("action_id", event.ActionID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	// Determine which config setting applies based on event category
	var setting string
	switch event.Category {
	case audit.CategoryReview:
		setting = l.config.Review
	case audit.CategorySecurity:
		setting = l.config.Security
	default:
		setting = "all" // Default to logging everything for unknown categories
	}

	// Check if logging is disabled for this category
	if setting == "off" {
		return
	}

	if event.IP == "" && event.UserAgent == "" {
		m := metaFrom(ctx)
		event.IP, event.UserAgent = m.ip, m.userAgent
	}

	// Log to zap if configured
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	// Log to MongoDB if configured
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Review Events ---

// Review describes one completed or resumed review action.
type Review struct {
	Action    string // approve, reject or unverify
	ActorID   string
	ActorRole string
	SubjectID string
	ItemID    string
	ArchiveID string
	ActionID  string
	Resumed   bool
	Note      string
}

func reviewEventType(action string) string {
	switch action {
	case "reject":
		return audit.EventVerificationRejected
	case "unverify":
		return audit.EventVerificationUnverified
	}
	return audit.EventVerificationApproved
}

// Reviewed logs a review action whose writes all succeeded.
func (l *Logger) Reviewed(ctx context.Context, rv Review) {
	details := map[string]string{
		"action":  rv.Action,
		"resumed": boolToString(rv.Resumed),
	}
	if rv.Note != "" {
		details["note_length"] = intToString(len(rv.Note))
	}
	eventType := reviewEventType(rv.Action)
	if rv.Resumed {
		eventType = audit.EventVerificationResumed
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryReview,
		EventType: eventType,
		ActorID:   rv.ActorID,
		ActorRole: rv.ActorRole,
		SubjectID: rv.SubjectID,
		ItemID:    rv.ItemID,
		ArchiveID: rv.ArchiveID,
		ActionID:  rv.ActionID,
		Success:   true,
		Details:   details,
	})
}

// PartialWrite logs a review action that stopped after its first write.
func (l *Logger) PartialWrite(ctx context.Context, rv Review, step string, cause error) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryReview,
		EventType:     audit.EventVerificationPartial,
		ActorID:       rv.ActorID,
		ActorRole:     rv.ActorRole,
		SubjectID:     rv.SubjectID,
		ItemID:        rv.ItemID,
		ArchiveID:     rv.ArchiveID,
		ActionID:      rv.ActionID,
		Success:       false,
		FailureReason: cause.Error(),
		Details: map[string]string{
			"action": rv.Action,
			"step":   step,
		},
	})
}

// ReviewFailed logs a review action that made no writes.
func (l *Logger) ReviewFailed(ctx context.Context, rv Review, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryReview,
		EventType:     audit.EventVerificationFailed,
		ActorID:       rv.ActorID,
		ActorRole:     rv.ActorRole,
		ItemID:        rv.ItemID,
		ActionID:      rv.ActionID,
		Success:       false,
		FailureReason: reason,
		Details: map[string]string{
			"action": rv.Action,
		},
	})
}

// --- Security Events ---

// ReviewDenied logs a review attempt by someone without a reviewer role.
func (l *Logger) ReviewDenied(ctx context.Context, actorID, actorRole, action, itemID string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventReviewDenied,
		ActorID:       actorID,
		ActorRole:     actorRole,
		ItemID:        itemID,
		Success:       false,
		FailureReason: "role not allowed to review",
		Details: map[string]string{
			"action": action,
		},
	})
}

// CSRFRejected logs a form post that failed anti-forgery validation.
func (l *Logger) CSRFRejected(ctx context.Context, r *http.Request, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventCSRFRejected,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
		Details: map[string]string{
			"path": r.URL.Path,
		},
	})
}

// --- Helper functions ---

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func intToString(i int) string {
	return strconv.Itoa(i)
}
