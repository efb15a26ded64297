package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/MikeSquared-Agency/threadpages/internal/events"
	"github.com/MikeSquared-Agency/threadpages/internal/ingester"
	"github.com/MikeSquared-Agency/threadpages/internal/publisher"
	"github.com/MikeSquared-Agency/threadpages/internal/slack"
	"github.com/MikeSquared-Agency/threadpages/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Slack caps event payloads well below this.
const maxBodyBytes = 1 << 20

var keepaliveInterval = 25 * time.Second

// threadIDPattern matches Slack message timestamps ("1700000000.000100").
var threadIDPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// EventProcessor handles one qualifying event.
type EventProcessor interface {
	Process(ctx context.Context, evt events.InboundEvent) ingester.Result
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Store      store.PageStore
	Verifier   *slack.Verifier
	Classifier *events.Classifier
	Processor  EventProcessor
	Broker     publisher.Broker
}

type Server struct {
	Deps
	router     chi.Router
	httpServer *http.Server

	// streams is cancelled when Shutdown begins so open SSE handlers return.
	streams     context.Context
	stopStreams context.CancelFunc
}

func NewServer(deps Deps, port int) *Server {
	srv := &Server{Deps: deps}
	srv.streams, srv.stopStreams = context.WithCancel(context.Background())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Post("/slack/events", srv.handleSlackEvents)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", srv.handleHealth)
		r.Get("/pages/{threadID}", srv.handleGetPage)
		r.Get("/pages/{threadID}/stream", srv.handleStreamPage)
	})

	srv.router = r
	srv.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.httpServer.RegisterOnShutdown(srv.stopStreams)
	return srv
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("starting HTTP API", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends open streams and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSlackEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		slog.Warn("failed to read webhook body", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unreadable body"})
		return
	}

	if err := s.Verifier.Verify(body, r.Header.Get(slack.HeaderSignature), r.Header.Get(slack.HeaderTimestamp)); err != nil {
		if errors.Is(err, slack.ErrVerifierMisconfigured) {
			slog.Error("cannot verify webhook", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "verification unavailable"})
			return
		}
		slog.Warn("rejected webhook", "error", err, "remote", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	cls, err := s.Classifier.Classify(body)
	if err != nil {
		slog.Warn("malformed webhook payload", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed payload"})
		return
	}

	switch cls.Decision {
	case events.DecisionChallenge:
		writeJSON(w, http.StatusOK, map[string]string{"challenge": cls.Challenge})
		return
	case events.DecisionIgnore:
		slog.Debug("ignoring event", "reason", cls.Reason, "event_id", cls.Event.EventID)
	case events.DecisionProcess:
		// A Slack-side disconnect must not abort a write halfway through.
		res := s.Processor.Process(context.WithoutCancel(r.Context()), cls.Event)
		if res.Err != nil {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Error processing event, but acknowledged."})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Event received"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "degraded",
			"service": "threadpages",
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "threadpages",
	})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	threadID, ok := threadIDParam(w, r)
	if !ok {
		return
	}

	page, err := s.Store.GetPage(r.Context(), threadID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "page not found"})
		return
	}
	if err != nil {
		slog.Error("get page failed", "thread_id", threadID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// handleStreamPage relays page updates as server-sent events until the client goes away.
func (s *Server) handleStreamPage(w http.ResponseWriter, r *http.Request) {
	threadID, ok := threadIDParam(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	sub, err := s.Broker.Subscribe(r.Context(), publisher.Topic(threadID))
	if err != nil {
		slog.Error("subscribe failed", "thread_id", threadID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "live updates unavailable"})
		return
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("unsubscribe failed", "thread_id", threadID, "error", err)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": subscribed\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.streams.Done():
			return
		case data, ok := <-sub.C():
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", publisher.EventContentUpdated, data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// threadIDParam rejects anything but a Slack timestamp, which keeps broker
// wildcards out of subscription topics.
func threadIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	threadID := chi.URLParam(r, "threadID")
	if !threadIDPattern.MatchString(threadID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid thread id"})
		return "", false
	}
	return threadID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
