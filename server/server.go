package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/attendly/timeclock/journal"
	"github.com/attendly/timeclock/srvreg"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// WebServer handles HTTP requests
type WebServer struct {
	httpAddr        string
	server          *http.Server
	logger          cmtlog.Logger
	startTime       time.Time
	serviceRegistry *srvreg.ServiceRegistry
	journal         *journal.Journal
}

// NewWebServer creates a new web server. journal may be nil.
func NewWebServer(httpPort string, serviceRegistry *srvreg.ServiceRegistry, jnl *journal.Journal, logger cmtlog.Logger) *WebServer {
	mux := http.NewServeMux()

	ws := &WebServer{
		httpAddr: ":" + httpPort,
		server: &http.Server{
			Addr:    ":" + httpPort,
			Handler: mux,
		},
		logger:          logger,
		startTime:       time.Now(),
		serviceRegistry: serviceRegistry,
		journal:         jnl,
	}

	// Register routes
	mux.HandleFunc("/", ws.handleRoot)
	mux.HandleFunc("/debug", ws.handleDebug)
	// Clock action and statistics endpoints
	mux.HandleFunc("/clock/", ws.handleAPI)
	mux.HandleFunc("/stats/", ws.handleAPI)

	return ws
}

// Start starts the web server
func (ws *WebServer) Start() {
	ws.logger.Info("Starting web server", "addr", ws.httpAddr)
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.logger.Error("web server error", "err", err)
		}
	}()
}

// Shutdown gracefully shuts down the web server
func (ws *WebServer) Shutdown(ctx context.Context) error {
	ws.logger.Info("Shutting down web server")
	return ws.server.Shutdown(ctx)
}

// handleRoot shows service status
func (ws *WebServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		JSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		JSONError(w, "Not found", http.StatusNotFound)
		return
	}

	info := map[string]interface{}{
		"service": "attendance time tracking",
		"status":  "online",
		"uptime":  time.Since(ws.startTime).String(),
	}
	writeJSON(w, http.StatusOK, info)
}

// handleDebug provides debugging information
func (ws *WebServer) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		JSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	debugInfo := map[string]interface{}{
		"uptime":     time.Since(ws.startTime).String(),
		"start_time": ws.startTime,
	}
	if ws.journal != nil {
		height, err := ws.journal.Height()
		if err != nil {
			debugInfo["journal_error"] = err.Error()
		} else {
			debugInfo["journal_height"] = height
		}
	}
	writeJSON(w, http.StatusOK, debugInfo)
}

// handleAPI routes clock and statistics requests through the service
// registry.
func (ws *WebServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	requestID, err := generateRequestID()
	if err != nil {
		JSONError(w, "Internal Server Error", http.StatusInternalServerError)
		ws.logger.Error("Failed to generate request ID", "err", err)
		return
	}

	request, err := srvreg.ConvertHttpRequest(r, requestID)
	if err != nil {
		JSONError(w, "Failed to convert request: "+err.Error(), http.StatusUnprocessableEntity)
		ws.logger.Error("Failed to convert HTTP request", "err", err)
		return
	}

	response, err := request.GenerateResponse(r.Context(), ws.serviceRegistry)
	if err != nil {
		ws.logger.Error("Handler error", "path", request.Path, "err", err)
	}
	if response == nil {
		JSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(response.StatusCode)
	if _, err := w.Write([]byte(response.Body)); err != nil {
		ws.logger.Error("Failed to write response", "err", err)
	}

	ws.logger.Info("Request handled",
		"request_id", requestID,
		"method", request.Method,
		"path", request.Path,
		"status", response.StatusCode,
	)
}

func generateRequestID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(payload)
}

// JSONError sends a JSON formatted error response with the given status code
// and message
func JSONError(w http.ResponseWriter, message string, statusCode int) {
	errorResponse := struct {
		Error string `json:"error"`
	}{
		Error: message,
	}
	jsonBytes, err := json.Marshal(errorResponse)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(jsonBytes)
}
