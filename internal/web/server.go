package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/Studio-Todos/mtool/internal/config"
	"github.com/Studio-Todos/mtool/internal/engine"
	"github.com/Studio-Todos/mtool/internal/stats"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server exposes the compression engine over HTTP with per-iteration
// progress streamed to websocket clients.
type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.RWMutex

	// Current operation state
	operationMutex sync.RWMutex
	isRunning      bool
	currentStats   *stats.Statistics
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CompressRequest is the JSON body accepted by /api/compress.
type CompressRequest struct {
	SourcePath       string `json:"source_path"`
	OutputPath       string `json:"output_path,omitempty"`
	MediaKind        string `json:"media_kind"` // "image" or "video"
	ReductionPercent int    `json:"reduction_percent,omitempty"`
	TargetBytes      int64  `json:"target_bytes,omitempty"`
	MaxIterations    int    `json:"max_iterations,omitempty"`
	Preset           string `json:"preset,omitempty"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewServer(cfg *config.Config, log *logrus.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		log:          log,
		router:       mux.NewRouter(),
		wsClients:    make(map[*websocket.Conn]bool),
		currentStats: stats.NewStatistics(),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/compress", s.handleCompress).Methods("POST")
	api.HandleFunc("/statistics", s.handleGetStatistics).Methods("GET")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Infof("Starting web server on http://localhost%s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	running := s.isRunning
	s.operationMutex.RUnlock()

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"running":    running,
			"statistics": s.currentStats.Snapshot(),
		},
	})
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	var req CompressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.SourcePath == "" {
		s.writeError(w, "source_path is required", http.StatusBadRequest)
		return
	}
	if req.MediaKind != "image" && req.MediaKind != "video" {
		s.writeError(w, "media_kind must be image or video", http.StatusBadRequest)
		return
	}
	if (req.ReductionPercent == 0) == (req.TargetBytes == 0) {
		s.writeError(w, "exactly one of reduction_percent and target_bytes is required", http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(req.SourcePath); err != nil {
		s.writeError(w, "source file does not exist", http.StatusBadRequest)
		return
	}

	// Check if already running
	s.operationMutex.Lock()
	if s.isRunning {
		s.operationMutex.Unlock()
		s.writeError(w, "Operation already in progress", http.StatusConflict)
		return
	}
	s.isRunning = true
	s.operationMutex.Unlock()

	go s.runCompressAsync(req)

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Compression started",
	})
}

func (s *Server) handleGetStatistics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"summary":  s.currentStats.GetSummary(),
			"counters": s.currentStats.Snapshot(),
		},
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	s.log.Debug("WebSocket client connected")

	// Remove client on disconnect
	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		s.log.Debug("WebSocket client disconnected")
	}()

	// Keep connection alive
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

func (s *Server) runCompressAsync(req CompressRequest) {
	defer func() {
		s.operationMutex.Lock()
		s.isRunning = false
		s.operationMutex.Unlock()
	}()

	s.currentStats.JobStarted()
	s.broadcastWSMessage("compress_started", map[string]interface{}{
		"source_path": req.SourcePath,
		"media_kind":  req.MediaKind,
	})

	eng := engine.New(s.log, engine.Options{
		FFmpegBin:   s.cfg.Tools.FFmpeg,
		FFprobeBin:  s.cfg.Tools.FFprobe,
		ExiftoolBin: s.cfg.Tools.Exiftool,
		OnProgress: func(p engine.Progress) {
			s.broadcastWSMessage("iteration", map[string]interface{}{
				"iteration":      p.Iteration,
				"quality":        p.Quality,
				"bitrate_kbps":   p.BitrateKbps,
				"candidate_size": p.CandidateSize,
				"target_size":    p.TargetSize,
			})
		},
	})

	engReq := engine.Request{
		SourcePath:    req.SourcePath,
		OutputPath:    req.OutputPath,
		MaxIterations: req.MaxIterations,
		Preset:        req.Preset,
	}
	if req.ReductionPercent > 0 {
		engReq.Target = engine.ByPercent(req.ReductionPercent)
	} else {
		engReq.Target = engine.ToBytes(req.TargetBytes)
	}

	var res *engine.Result
	var err error
	if req.MediaKind == "video" {
		if engReq.MaxIterations <= 0 {
			engReq.MaxIterations = s.cfg.Compression.Video.MaxIterationsByPercent
		}
		if engReq.Preset == "" {
			engReq.Preset = s.cfg.Compression.Video.Preset
		}
		res, err = eng.CompressVideo(context.Background(), engReq)
	} else {
		if engReq.MaxIterations <= 0 {
			engReq.MaxIterations = s.cfg.Compression.Image.MaxIterationsByPercent
		}
		res, err = eng.CompressImage(context.Background(), engReq)
	}

	if err != nil {
		s.currentStats.JobFailed()
		s.broadcastWSMessage("compress_error", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	switch {
	case res.AlreadyMet:
		s.currentStats.JobNoOp()
	case res.MetCap:
		s.currentStats.JobBestEffort(res.OriginalSize, res.FinalSize)
	default:
		s.currentStats.JobCompleted(res.OriginalSize, res.FinalSize)
	}
	s.currentStats.AddIterations(res.Iterations)

	s.broadcastWSMessage("compress_completed", map[string]interface{}{
		"final_path":    res.FinalPath,
		"final_size":    res.FinalSize,
		"original_size": res.OriginalSize,
		"target_size":   res.TargetSize,
		"reduction":     res.Reduction,
		"met_cap":       res.MetCap,
		"already_met":   res.AlreadyMet,
	})
}

func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	message := WSMessage{
		Type: messageType,
		Data: data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	for conn := range s.wsClients {
		err := conn.WriteMessage(websocket.TextMessage, msgBytes)
		if err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			// Remove failed connection
			go func(c *websocket.Conn) {
				s.wsMutex.Lock()
				delete(s.wsClients, c)
				s.wsMutex.Unlock()
				c.Close()
			}(conn)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>mtool</title></head>
<body>
<h1>mtool compression</h1>
<p>POST /api/compress with {"source_path": "...", "media_kind": "image", "reduction_percent": 50}</p>
<p>Connect to /ws for per-iteration progress events.</p>
</body>
</html>
`
