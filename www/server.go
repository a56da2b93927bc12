package www

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/angas/sacplot/config"
	"github.com/angas/sacplot/csvlog"
	"github.com/angas/sacplot/plot"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	sessionName      = "sacplot"
	sessionSmoothKey = "smooth"
)

// FigureSource hands out the figures the server draws.
type FigureSource interface {
	Source() plot.Source
	Current() (plot.Figure, error)
	WithWindow(window int) (plot.Figure, error)
}

type Server struct {
	logger   *slog.Logger
	config   config.AppConfigApi
	figures  FigureSource
	db       LogReader
	hub      *Hub
	tm       *TemplateManager
	sessions sessions.Store
	mux      *http.ServeMux
	stop     context.CancelFunc
	done     <-chan struct{}
}

// StartServer sets up the routes and starts the web socket hub. db may be
// nil, the log page is then disabled.
func StartServer(figures FigureSource, db LogReader, cnfg config.AppConfigApi) (*Server, error) {
	logger := slog.Default().With("module", "www")
	tm, err := NewTemplateManager(logger, cnfg.WwwDir)
	if err != nil {
		return nil, fmt.Errorf("template manager initialization error: %w", err)
	}

	key := []byte(cnfg.SessionKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("failed to generate session key")
		}
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		logger:   logger,
		config:   cnfg,
		figures:  figures,
		db:       db,
		hub:      NewHub(logger),
		tm:       tm,
		sessions: store,
		mux:      http.NewServeMux(),
		stop:     cancel,
		done:     ctx.Done(),
	}

	go s.hub.Run(ctx)

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	s.mux.Handle("/", logReqMW(http.HandlerFunc(s.handleIndex)))
	s.mux.Handle("/chart", logReqMW(http.HandlerFunc(s.handleChart)))
	s.mux.Handle("/summary", logReqMW(http.HandlerFunc(s.handleSummary)))

	s.mux.Handle("/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")),
		db,
		s.tm)))

	s.mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		select {
		case s.hub.Register <- client:
		case <-s.done:
			client.conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
	})

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// URL is where a browser reaches the server.
func (s *Server) URL() string {
	host := s.config.GetAddress()
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.config.GetPort())) + "/"
}

// Notify tells every connected page that fig is available.
func (s *Server) Notify(fig plot.Figure) {
	msg, err := json.Marshal(struct {
		Type    string       `json:"type"`
		Summary plot.Summary `json:"summary"`
	}{"reload", fig.Summary})
	if err != nil {
		s.logger.Error("failed to encode reload message", slog.Any("error", err))
		return
	}

	select {
	case s.hub.Broadcast <- msg:
	case <-s.done:
	}
}

// Close stops the hub and the template watcher.
func (s *Server) Close() error {
	s.stop()
	return s.tm.Close()
}

// Run serves until ctx is done or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	addr := net.JoinHostPort(s.config.GetAddress(), strconv.Itoa(s.config.GetPort()))
	s.logger.Info("starting server...", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErrors := make(chan error, 1)

	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil
	}
}

// window picks the smoothing window for a request. A "smooth" query
// parameter wins and is remembered in the session.
func (s *Server) window(w http.ResponseWriter, r *http.Request) int {
	window := max(s.figures.Source().Window, 1)

	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		s.logger.Debug("ignoring invalid session", slog.Any("error", err))
	}
	if v, ok := session.Values[sessionSmoothKey].(int); ok && v >= 1 {
		window = v
	}

	if q := intOrDefault(r.URL, "smooth", 0); q >= 1 {
		window = q
		session.Values[sessionSmoothKey] = q
		if err := session.Save(r, w); err != nil {
			s.logger.Warn("failed to save session", slog.Any("error", err))
		}
	}
	return window
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	src := s.figures.Source()
	window := s.window(w, r)

	var summary *plot.Summary
	if fig, _ := s.figures.Current(); fig.Summary.Rows > 0 {
		summary = &fig.Summary
	}

	data := struct {
		Kind    plot.Kind
		Path    string
		Window  int
		Summary *plot.Summary
		HasLog  bool
	}{
		Kind:    src.Kind,
		Path:    src.Path,
		Window:  window,
		Summary: summary,
		HasLog:  s.db != nil,
	}

	w.Header().Set("Content-Type", "text/html")
	if err := s.tm.ExecuteToWriter("index.html", data, w); err != nil {
		s.logger.Error("handling index request", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	fig, ok := s.figure(w, r)
	if !ok {
		return
	}
	if err := writeJSON(w, fig.Chart); err != nil {
		s.logger.Error("handling chart request", slog.Any("error", err))
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	fig, ok := s.figure(w, r)
	if !ok {
		return
	}
	if err := writeJSON(w, fig.Summary); err != nil {
		s.logger.Error("handling summary request", slog.Any("error", err))
	}
}

func (s *Server) figure(w http.ResponseWriter, r *http.Request) (plot.Figure, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return plot.Figure{}, false
	}

	fig, err := s.figures.WithWindow(s.window(w, r))
	if err != nil {
		src := s.figures.Source()
		switch {
		case errors.Is(err, fs.ErrNotExist):
			http.Error(w, fmt.Sprintf("%s not found. %s", src.Path, src.Kind.Hint()), http.StatusNotFound)
		case errors.Is(err, plot.ErrNoData):
			http.Error(w, fmt.Sprintf("%s has no data yet", src.Path), http.StatusNotFound)
		case errors.Is(err, csvlog.ErrMissingColumn):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			s.logger.Error("loading figure failed", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return plot.Figure{}, false
	}
	return fig, true
}

// RenderStandalone writes a self contained page drawing fig.
func RenderStandalone(w io.Writer, fig plot.Figure) error {
	tm, err := NewTemplateManager(slog.Default().With("module", "www"), nil)
	if err != nil {
		return err
	}
	return tm.ExecuteToWriter("standalone.html", fig, w)
}
