package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"xpicai/backend/xray"
)

// maxUploadBytes bounds multipart uploads held in memory.
const maxUploadBytes = 32 << 20

// Server exposes the analysis core over HTTP. Routing stays thin: error
// taxonomy and report construction live in the xray package.
type Server struct {
	analyzer     *xray.Analyzer
	remoteActive bool
	logger       *log.Logger
}

// New builds a server around the analyzer. remoteActive feeds the health
// endpoint only.
func New(analyzer *xray.Analyzer, remoteActive bool, logger *log.Logger) *Server {
	return &Server{analyzer: analyzer, remoteActive: remoteActive, logger: logger}
}

// Routes returns the handler for all endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "仅支持 POST")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "缺少文件")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "缺少文件")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "文件为空")
		return
	}
	imageBytes, err := io.ReadAll(file)
	if err != nil || len(imageBytes) == 0 {
		writeError(w, http.StatusBadRequest, "文件为空")
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), imageBytes)
	if err != nil {
		s.logger.Printf("[predict] failed: %v", err)
		status := http.StatusInternalServerError
		if xray.IsImageDecode(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	layer2 := "通义千问 VL (未配置（仅用 BiomedCLIP）)"
	if s.remoteActive {
		layer2 = "通义千问 VL (已配置)"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"layer1":   "BiomedCLIP (本地)",
		"layer2":   layer2,
		"diseases": xray.CatalogueSize(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
