// Package dashboard serves an optional live HTTP dashboard for a running
// scan: an SSE /logs endpoint rendering highlighted output as HTML (grounded
// on internal/runner/web.go's serveWeb) and a /status websocket streaming
// RuntimeStats snapshots (grounded on PythonJu80-cloudmigrate's use of
// gorilla/websocket for its own live agent channel). Disabled by default;
// enabled with a bound address.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"time"

	oversight "cirello.io/oversight/easy"
	terminal "github.com/buildkite/terminal-to-html/v3"
	"github.com/gorilla/websocket"

	"github.com/welchbj/bscan/internal/logbus"
	"github.com/welchbj/bscan/internal/runtime"
	"github.com/welchbj/bscan/internal/supervisor"
)

// RuntimeStats is the periodic snapshot broadcast over /status, per §3 of
// SPEC_FULL.md.
type RuntimeStats struct {
	ActiveTargets int `json:"activeTargets"`
	TotalSubprocs int `json:"totalSubprocs"`
}

// Dashboard serves the live HTTP views of a single bscan run.
type Dashboard struct {
	Addr       string
	Runtime    *runtime.Runtime
	Supervisor *supervisor.Supervisor
	Hub        *logbus.Hub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

var indexPage = template.Must(template.New("index").Parse(`<!doctype html>
<html><head><title>bscan dashboard</title></head>
<body>
<h1>bscan</h1>
<div id="status"></div>
<pre id="logs"></pre>
<script>
var logs = document.getElementById("logs");
var es = new EventSource("/logs?mode=html");
es.onmessage = function(e) {
  var msg = JSON.parse(e.data);
  logs.innerHTML += msg.target + ": " + msg.line + "\n";
};
var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/status");
ws.onmessage = function(e) {
  var stats = JSON.parse(e.data);
  document.getElementById("status").textContent =
    stats.activeTargets + " active target(s), " + stats.totalSubprocs + " running subprocess(es)";
};
</script>
</body></html>`))

// Serve starts the HTTP server on a listener bound to d.Addr and blocks
// until ctx is cancelled, then shuts the server down gracefully. Call it
// via Supervise to run it as an oversight-managed background task, the way
// web.go's serveWeb is launched from Runner.Start.
func (d *Dashboard) Serve(ctx context.Context) error {
	l, err := net.Listen("tcp", d.Addr)
	if err != nil {
		return err
	}
	log.Println("bscan dashboard listening on", l.Addr())

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_ = indexPage.Execute(w, nil)
	})
	mux.HandleFunc("/logs", d.handleLogs)
	mux.HandleFunc("/status", d.handleStatus)

	server := &http.Server{Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(l) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type logMessage struct {
	Target string `json:"target"`
	Line   string `json:"line"`
}

func (d *Dashboard) handleLogs(w http.ResponseWriter, req *http.Request) {
	mode := req.URL.Query().Get("mode")
	stream := d.Hub.Subscribe()
	defer d.Hub.Unsubscribe(stream)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case msg := <-stream:
			line := msg.Line
			if mode == "html" {
				line = string(terminal.Render([]byte(line)))
			}
			b, err := json.Marshal(logMessage{Target: msg.Target, Line: line})
			if err != nil {
				log.Println("dashboard: encode:", err)
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
				return
			}
			w.(http.Flusher).Flush()
		case <-req.Context().Done():
			return
		}
	}
}

func (d *Dashboard) handleStatus(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Println("dashboard: websocket upgrade:", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := RuntimeStats{
				ActiveTargets: d.Runtime.ActiveCount(),
				TotalSubprocs: d.Supervisor.RunningCount(),
			}
			if err := conn.WriteJSON(stats); err != nil {
				return
			}
		case <-req.Context().Done():
			return
		}
	}
}

// Supervise launches Serve as an oversight-managed background task that
// restarts on failure, mirroring web.go's supervision of serveWeb.
func (d *Dashboard) Supervise(ctx context.Context) {
	ovCtx := oversight.WithContext(ctx, oversight.WithLogger(log.New(log.Writer(), "dashboard: ", log.LstdFlags)))
	oversight.Add(ovCtx, func(taskCtx context.Context) error {
		return d.Serve(taskCtx)
	})
}
