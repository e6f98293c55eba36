package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"equion/internal/dispatch"
	"equion/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checking is left to corsMiddleware's policy: any origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": message})
}

// handleCommand runs one API command named by the path: POST /api/v1/login
// runs v1/login. Streaming commands are not reachable here.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "*")

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Invalid JSON")
		return
	}
	body := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			writeError(w, "Invalid JSON")
			return
		}
	}

	response := dispatch.Dispatch(s.service, command, body, "")
	status := http.StatusOK
	if success, ok := response["success"].(bool); ok && !success {
		status = http.StatusBadRequest
		slog.Debug("command failed", "command", command, "error", response["error"])
	}
	writeJSON(w, status, response)
}

// handleFile serves a stored blob with a MIME type derived from its name.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	file, err := s.service.GetFile(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err.Error())
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(file.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(file.Content)
}

// handleUpdateUserImage takes the avatar bytes in the request body, with the
// file name and session token in headers.
func (s *Server) handleUpdateUserImage(w http.ResponseWriter, r *http.Request) {
	name := r.Header.Get("X-File-Name")
	if name == "" {
		writeError(w, "No file name provided")
		return
	}
	token := r.Header.Get("X-Equion-Token")
	if token == "" {
		writeError(w, "No token provided")
		return
	}

	content, err := io.ReadAll(r.Body)
	if err != nil || len(content) == 0 {
		writeError(w, "No file content provided")
		return
	}

	if err := s.service.UpdateUserImage(token, name, content); err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleWebSocket upgrades the connection and starts the client pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := ws.NewClient(s.hub, conn)
	client.Register()
	go client.WritePump()
	go client.ReadPump()
}
