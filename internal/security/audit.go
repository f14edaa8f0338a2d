package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AuditEventType classifies security events.
type AuditEventType string

const (
	AuthenticationSuccess AuditEventType = "authentication_success"
	AuthenticationFailure AuditEventType = "authentication_failure"
	RateLimitExceeded     AuditEventType = "rate_limit_exceeded"
	ValidationFailure     AuditEventType = "validation_failure"
	SecurityViolation     AuditEventType = "security_violation"
	APIKeyUsage           AuditEventType = "api_key_usage"
)

// AuditEvent is one security audit record.
type AuditEvent struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	EventType AuditEventType         `json:"event_type"`
	UserID    string                 `json:"user_id,omitempty"`
	IPAddress string                 `json:"ip_address"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Severity  string                 `json:"severity"`
	Source    string                 `json:"source"`
	RequestID string                 `json:"request_id,omitempty"`
}

// AuditConfig holds audit logging configuration.
type AuditConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BufferSize    int           `yaml:"buffer_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// AuditLogger buffers security events and flushes them to the structured
// log on an interval.
type AuditLogger struct {
	config     *AuditConfig
	logger     *logrus.Logger
	buffer     chan *AuditEvent
	stopChan   chan bool
	wg         sync.WaitGroup
	eventCount int64
	mu         sync.RWMutex
	stopped    bool
}

// NewAuditLogger creates an audit logger, started when enabled.
func NewAuditLogger(config *AuditConfig, logger *logrus.Logger) *AuditLogger {
	if config.BufferSize == 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval == 0 {
		config.FlushInterval = 10 * time.Second
	}

	auditor := &AuditLogger{
		config:   config,
		logger:   logger,
		buffer:   make(chan *AuditEvent, config.BufferSize),
		stopChan: make(chan bool),
	}
	if config.Enabled {
		auditor.start()
	}
	return auditor
}

// LogEvent records one security event. Events are dropped, with a warning,
// when the buffer is full.
func (a *AuditLogger) LogEvent(ctx context.Context, eventType AuditEventType, message string, details map[string]interface{}) {
	a.mu.RLock()
	enabled := a.config.Enabled
	stopped := a.stopped
	a.mu.RUnlock()

	if !enabled || stopped {
		return
	}

	event := &AuditEvent{
		ID:        generateEventID(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Message:   message,
		Details:   a.sanitizeDetails(details),
		Severity:  severityFor(eventType),
		Source:    "shipcost-router",
	}

	if requestID, ok := ctx.Value("request_id").(string); ok {
		event.RequestID = requestID
	}
	if authInfo, ok := ctx.Value("auth_info").(*AuthInfo); ok {
		event.UserID = authInfo.UserID
	}
	if clientIP, ok := ctx.Value("client_ip").(string); ok {
		event.IPAddress = clientIP
	}

	select {
	case a.buffer <- event:
		a.mu.Lock()
		a.eventCount++
		a.mu.Unlock()
	default:
		a.logger.Warn("Audit buffer full, dropping event")
	}
}

// AuditMiddleware records one event per request with timing and status.
func (a *AuditLogger) AuditMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: 200}

			requestID := generateRequestID()
			ctx := context.WithValue(r.Context(), "request_id", requestID)
			ctx = context.WithValue(ctx, "client_ip", getClientIPFromRequest(r))

			next.ServeHTTP(wrapper, r.WithContext(ctx))

			details := map[string]interface{}{
				"method":      r.Method,
				"url":         r.URL.String(),
				"status_code": wrapper.statusCode,
				"duration_ms": time.Since(startTime).Milliseconds(),
				"user_agent":  r.UserAgent(),
			}

			eventType := APIKeyUsage
			switch {
			case wrapper.statusCode == http.StatusUnauthorized:
				eventType = AuthenticationFailure
			case wrapper.statusCode == http.StatusTooManyRequests:
				eventType = RateLimitExceeded
			case wrapper.statusCode >= 400 && wrapper.statusCode < 500:
				eventType = ValidationFailure
			}

			message := fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, wrapper.statusCode)
			a.LogEvent(ctx, eventType, message, details)
		})
	}
}

// GetEventCount returns the number of events recorded.
func (a *AuditLogger) GetEventCount() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.eventCount
}

// Stop flushes and stops the audit logger.
func (a *AuditLogger) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.config.Enabled || a.stopped {
		return
	}
	a.stopped = true
	close(a.stopChan)
	a.wg.Wait()
	close(a.buffer)

	for event := range a.buffer {
		a.writeEvent(event)
	}
}

func (a *AuditLogger) start() {
	a.wg.Add(1)
	go a.eventProcessor()
}

func (a *AuditLogger) eventProcessor() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.FlushInterval)
	defer ticker.Stop()

	events := make([]*AuditEvent, 0, 100)

	for {
		select {
		case event := <-a.buffer:
			events = append(events, event)
			if len(events) >= 100 {
				a.flushEvents(events)
				events = events[:0]
			}
		case <-ticker.C:
			if len(events) > 0 {
				a.flushEvents(events)
				events = events[:0]
			}
		case <-a.stopChan:
			if len(events) > 0 {
				a.flushEvents(events)
			}
			return
		}
	}
}

func (a *AuditLogger) flushEvents(events []*AuditEvent) {
	for _, event := range events {
		a.writeEvent(event)
	}
}

func (a *AuditLogger) writeEvent(event *AuditEvent) {
	fields := logrus.Fields{
		"audit_event": true,
		"event_type":  event.EventType,
		"event_id":    event.ID,
		"user_id":     event.UserID,
		"ip_address":  event.IPAddress,
		"severity":    event.Severity,
		"request_id":  event.RequestID,
		"timestamp":   event.Timestamp,
	}
	for key, value := range event.Details {
		fields["detail_"+key] = value
	}

	entry := a.logger.WithFields(fields)
	switch event.Severity {
	case "critical":
		entry.Error(event.Message)
	case "high":
		entry.Warn(event.Message)
	case "medium":
		entry.Info(event.Message)
	default:
		entry.Debug(event.Message)
	}
}

func (a *AuditLogger) sanitizeDetails(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}
	sanitized := make(map[string]interface{})
	for key, value := range details {
		if isSensitiveField(key) {
			sanitized[key] = "***REDACTED***"
		} else {
			sanitized[key] = value
		}
	}
	return sanitized
}

func isSensitiveField(field string) bool {
	fieldLower := strings.ToLower(field)
	for _, sensitive := range []string{"password", "token", "secret", "key", "auth", "credential", "authorization"} {
		if strings.Contains(fieldLower, sensitive) {
			return true
		}
	}
	return false
}

func severityFor(eventType AuditEventType) string {
	switch eventType {
	case SecurityViolation:
		return "critical"
	case AuthenticationFailure:
		return "high"
	case RateLimitExceeded, ValidationFailure:
		return "medium"
	default:
		return "low"
	}
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func generateEventID() string {
	return fmt.Sprintf("audit_%d_%d", time.Now().Unix(), time.Now().Nanosecond())
}

func generateRequestID() string {
	return fmt.Sprintf("req_%d_%d", time.Now().Unix(), time.Now().Nanosecond())
}
