package srvreg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/attendly/timeclock/engine"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// Request represents the client's original HTTP request
type Request struct {
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Query      string            `json:"query,omitempty"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	RemoteAddr string            `json:"remote_addr"`
	RequestID  string            `json:"request_id"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Response represents the computed response for a request
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	Error      string            `json:"error,omitempty"`
}

// ParseBody attempts to parse the Response's Body field as JSON and returns
// the structured data or nil if parsing fails.
func (r *Response) ParseBody() interface{} {
	if r.Body == "" {
		return nil
	}
	var bodyMap map[string]interface{}
	if err := json.Unmarshal([]byte(r.Body), &bodyMap); err == nil {
		return bodyMap
	}
	var bodyArray []interface{}
	if err := json.Unmarshal([]byte(r.Body), &bodyArray); err == nil {
		return bodyArray
	}
	return nil
}

// ServiceHandler is a function type for service handlers. The context is the
// inbound request's; cancellation aborts the engine call before its write.
type ServiceHandler func(context.Context, *Request) (*Response, error)

// RouteKey is used to uniquely identify a route
type RouteKey struct {
	Method string
	Path   string
}

// ServiceRegistry maps routes to the engine operations behind them.
type ServiceRegistry struct {
	handlers    map[RouteKey]ServiceHandler
	exactRoutes map[RouteKey]bool
	mu          sync.RWMutex
	engine      *engine.Engine
	logger      cmtlog.Logger
}

// NewServiceRegistry creates a new service registry
func NewServiceRegistry(eng *engine.Engine, logger cmtlog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		handlers:    make(map[RouteKey]ServiceHandler),
		exactRoutes: make(map[RouteKey]bool),
		engine:      eng,
		logger:      logger,
	}
}

// RegisterHandler registers a new service handler
func (sr *ServiceRegistry) RegisterHandler(method, path string, isExactPath bool, handler ServiceHandler) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	key := RouteKey{Method: strings.ToUpper(method), Path: path}
	sr.handlers[key] = handler
	sr.exactRoutes[key] = isExactPath
}

// GetHandlerForPath finds the appropriate handler for a given path and a
// boolean of whether or not the handler was found
func (sr *ServiceRegistry) GetHandlerForPath(method, path string) (ServiceHandler, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	// Try exact match first
	key := RouteKey{Method: strings.ToUpper(method), Path: path}
	if handler, ok := sr.handlers[key]; ok {
		if sr.exactRoutes[key] {
			return handler, true
		}
	}

	// Try pattern matching
	for routeKey, handler := range sr.handlers {
		if routeKey.Method != strings.ToUpper(method) {
			continue
		}
		if sr.exactRoutes[routeKey] {
			continue
		}
		if matchPath(routeKey.Path, path) {
			return handler, true
		}
	}

	return nil, false
}

// matchPath does simple pattern matching for routes.
// It supports patterns like "/clock/status/:userID" matching "/clock/status/EMP-001"
func matchPath(pattern, path string) bool {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i := range len(patternParts) {
		if strings.HasPrefix(patternParts[i], ":") {
			continue
		}
		if patternParts[i] != pathParts[i] {
			return false
		}
	}

	return true
}

// pathParam extracts the path segment matching the :name parameter of the
// pattern, or "" when the pattern does not carry it.
func pathParam(pattern, path, name string) string {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")
	if len(patternParts) != len(pathParts) {
		return ""
	}
	for i, part := range patternParts {
		if part == ":"+name {
			return pathParts[i]
		}
	}
	return ""
}

// RegisterDefaultServices sets up the clock and statistics routes.
func (sr *ServiceRegistry) RegisterDefaultServices() {
	sr.RegisterHandler("POST", "/clock/in", true, sr.ClockInHandler)
	sr.RegisterHandler("POST", "/clock/out", true, sr.ClockOutHandler)
	sr.RegisterHandler("POST", "/clock/lunch/start", true, sr.StartLunchHandler)
	sr.RegisterHandler("POST", "/clock/lunch/resume", true, sr.ResumeShiftHandler)
	sr.RegisterHandler("GET", "/clock/status/:userID", false, sr.CurrentStatusHandler)
	sr.RegisterHandler("GET", "/stats/dashboard/:userID", false, sr.DashboardStatsHandler)
	sr.RegisterHandler("GET", "/stats/weekly/:userID", false, sr.WeeklyStatsHandler)
	sr.RegisterHandler("GET", "/stats/monthly/:userID", false, sr.MonthlyStatsHandler)
}

// GenerateResponse executes the request against the registered handlers.
func (req *Request) GenerateResponse(ctx context.Context, services *ServiceRegistry) (*Response, error) {
	handler, found := services.GetHandlerForPath(req.Method, req.Path)
	if !found {
		return &Response{
			StatusCode: http.StatusNotFound,
			Headers:    map[string]string{"Content-Type": "text/plain"},
			Body:       fmt.Sprintf("Service not found for %s %s", req.Method, req.Path),
		}, nil
	}
	return handler(ctx, req)
}

// ConvertHttpRequest converts an http.Request to a registry Request.
func ConvertHttpRequest(r *http.Request, requestID string) (*Request, error) {
	headers := make(map[string]string)
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	body := ""
	if r.Body != nil {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		raw := strings.TrimSpace(string(bodyBytes))
		body = compactJSON(raw)
	}

	return &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Query:      r.URL.RawQuery,
		Headers:    headers,
		Body:       body,
		RemoteAddr: r.RemoteAddr,
		RequestID:  requestID,
		Timestamp:  time.Now(),
	}, nil
}

func compactJSON(body string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(body)); err != nil {
		return strings.TrimSpace(body)
	}
	return buf.String()
}
