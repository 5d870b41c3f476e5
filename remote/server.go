// Package remote exposes a running lumen Engine over HTTP and a websocket
// so that phones, tablets and control surfaces on the network can drive
// it. Every write is queued onto the engine's tick goroutine; handlers
// never touch live state.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/phanxgames/lumen"
)

const (
	defaultFrameTimeout = 2 * time.Second
	defaultFrameSize    = 320
	shutdownTimeout     = 5 * time.Second
)

// Options tunes a Server. The zero value is usable.
type Options struct {
	// FrameTimeout bounds how long GET /frame.png waits for the next
	// rendered frame.
	FrameTimeout time.Duration
	// FrameSize is the default bounding box for /frame.png. A size query
	// parameter overrides it; size=0 returns the full frame.
	FrameSize int
	// MIDI routes raw messages from websocket clients. Nil creates a
	// router on the engine's store.
	MIDI *lumen.MIDIRouter
}

// Server is the remote control surface for one Engine.
type Server struct {
	engine   *lumen.Engine
	midi     *lumen.MIDIRouter
	opts     Options
	router   chi.Router
	upgrader websocket.Upgrader
}

// New creates a server for e.
func New(e *lumen.Engine, opts Options) *Server {
	if opts.FrameTimeout <= 0 {
		opts.FrameTimeout = defaultFrameTimeout
	}
	if opts.FrameSize == 0 {
		opts.FrameSize = defaultFrameSize
	}
	midi := opts.MIDI
	if midi == nil {
		midi = lumen.NewMIDIRouter(e.Store())
	}
	s := &Server{
		engine: e,
		midi:   midi,
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Control surfaces are served from anywhere on the LAN.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

// MIDI returns the router used for websocket MIDI messages.
func (s *Server) MIDI() *lumen.MIDIRouter { return s.midi }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/state", s.handleGetState)
	r.Post("/state", s.handlePostState)
	r.Get("/fields", s.handleFields)
	r.Post("/fields", s.handlePostField)

	r.Get("/presets", s.handlePresets)
	r.Post("/presets/{name}", s.handleApplyPreset)

	r.Post("/transport/{action}", s.handleTransport)
	r.Post("/snapshots", s.handleCapture)
	r.Delete("/snapshots/last", s.handleDeleteSnapshot)
	r.Post("/randomize", s.command(func(e *lumen.Engine) { e.Randomize() }))
	r.Post("/reset", s.command(func(e *lumen.Engine) { e.Reset() }))
	r.Post("/export", s.handleExport)

	r.Get("/frame.png", s.handleFrame)

	r.Route("/midi", func(r chi.Router) {
		r.Get("/mappings", s.handleMIDIMappings)
		r.Post("/learn/{path}", s.handleMIDILearn)
		r.Delete("/mappings/{key}", s.handleMIDIUnmap)
	})

	r.Get("/ws", s.handleWS)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("remote: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lumen.Logger().Info("remote listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("remote: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// --- Handlers ---

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Store().Published())
}

// handlePostState merges a partial state document over the published
// state and replaces the live state with the result.
func (s *Server) handlePostState(w http.ResponseWriter, r *http.Request) {
	p := s.engine.Store().Published()
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.engine.Store().Post(lumen.ReplaceState(p))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, lumen.FieldPaths())
}

func (s *Server) handlePostField(w http.ResponseWriter, r *http.Request) {
	var f lumen.FieldUpdate
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.postField(f); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) postField(f lumen.FieldUpdate) error {
	if _, ok := lumen.FieldRange(f.Path); !ok {
		return fmt.Errorf("%w: %q", lumen.ErrUnknownField, f.Path)
	}
	s.engine.Store().Post(f.Update())
	return nil
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Presets().Names())
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Presets().Lookup(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.engine.Store().Post(lumen.ReplaceState(p.State))
	w.WriteHeader(http.StatusAccepted)
}

var transportActions = map[string]func(*lumen.Engine){
	"play":   func(e *lumen.Engine) { e.Transport().Play() },
	"stop":   func(e *lumen.Engine) { e.Transport().Stop() },
	"toggle": func(e *lumen.Engine) { e.Transport().Toggle() },
	"pause":  func(e *lumen.Engine) { e.Transport().SetPaused(true) },
	"resume": func(e *lumen.Engine) { e.Transport().SetPaused(false) },
	"lock":   func(e *lumen.Engine) { e.Transport().Config.LockGeometry = true },
	"unlock": func(e *lumen.Engine) { e.Transport().Config.LockGeometry = false },
}

func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "action")
	cmd, ok := transportActions[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown transport action %q", name))
		return
	}
	s.engine.Post(cmd)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	s.engine.Post(func(e *lumen.Engine) {
		e.Store().Flush()
		e.Capture()
	})
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	s.engine.Post(func(e *lumen.Engine) { e.DeleteLastSnapshot() })
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	if label == "" {
		label = "remote"
	}
	s.engine.Post(func(e *lumen.Engine) { e.QueueExport(label) })
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) command(cmd func(*lumen.Engine)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.engine.Post(cmd)
		w.WriteHeader(http.StatusAccepted)
	}
}

// handleFrame waits for the next rendered frame and returns it as a PNG,
// scaled to fit the requested size.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	size := s.opts.FrameSize
	if q := r.URL.Query().Get("size"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid size %q", q))
			return
		}
		size = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.FrameTimeout)
	defer cancel()
	select {
	case img := <-s.engine.RequestFrame():
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := lumen.EncodePNG(w, lumen.FitImage(img, size)); err != nil {
			lumen.Logger().Warn("frame encode", "error", err)
		}
	case <-ctx.Done():
		writeError(w, http.StatusServiceUnavailable, errors.New("no frame rendered in time"))
	}
}

func (s *Server) handleMIDIMappings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.midi.Mappings())
}

func (s *Server) handleMIDILearn(w http.ResponseWriter, r *http.Request) {
	if err := s.midi.Learn(chi.URLParam(r, "path")); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleMIDIUnmap(w http.ResponseWriter, r *http.Request) {
	s.midi.Unmap(chi.URLParam(r, "key"))
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		lumen.Logger().Warn("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// requestLogger logs each request through the lumen logger at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		lumen.Logger().Debug("remote request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
