package api

import (
	"html/template"
	"log/slog"
	"net/http"
)

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>{{.Name}}</title>
	<style>
		body {
			font-family: sans-serif;
			display: flex;
			flex-direction: column;
			align-items: center;
			justify-content: center;
			height: 100vh;
			margin: 0;
			background: #1d1d1f;
			color: #f5f5f7;
		}
		h1 { font-size: 3em; margin: 0; }
		p { color: #a1a1a6; }
	</style>
</head>
<body>
	<h1>{{.Name}}</h1>
	<p>The server is up and running.</p>
	<p>{{.Online}} user(s) connected to voice.</p>
</body>
</html>
`))

// handleStatus renders the human-facing landing page with the live
// voice-user count.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := statusTemplate.Execute(w, map[string]any{
		"Name":   s.cfg.Server.Name,
		"Online": s.service.Voice().OnlineCount(),
	})
	if err != nil {
		slog.Error("status page render failed", "error", err)
	}
}
