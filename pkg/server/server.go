package server

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/thinkingspace/pkg/buildinfo"
	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/export"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/session"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

// MaxBodySize bounds uploaded documents.
const MaxBodySize = 8 << 20

// Options configures a Server.
type Options struct {
	// AllowedOrigins lists CORS origins; empty allows none.
	AllowedOrigins []string

	// Store holds snapshots and cached artifacts. Nil uses a memory store.
	Store store.Store
	Keyer store.Keyer

	// SnapshotTTL bounds the lifetime of stored snapshots.
	SnapshotTTL time.Duration
}

// Server serves a Repository over HTTP.
type Server struct {
	repo   Repository
	runner *export.Runner
	store  store.Store
	keyer  store.Keyer
	ttl    time.Duration
	logger *log.Logger
	router chi.Router
}

// New creates a server for repo.
func New(repo Repository, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	st := opts.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	keyer := opts.Keyer
	if keyer == nil {
		keyer = store.NewDefaultKeyer()
	}
	s := &Server{
		repo:   repo,
		runner: export.NewRunner(st, keyer, logger.WithPrefix("export")),
		store:  st,
		keyer:  keyer,
		ttl:    opts.SnapshotTTL,
		logger: logger,
	}
	s.router = s.routes(opts.AllowedOrigins)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes(origins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/data/{file}", s.section)
	r.Route("/api", func(r chi.Router) {
		r.Get("/document", s.getDocument)
		r.Put("/document", s.putDocument)
		r.Get("/render.{format}", s.render)
		r.Route("/snapshots/{workspace}", func(r chi.Router) {
			r.Get("/", s.getSnapshot)
			r.Put("/", s.putSnapshot)
			r.Delete("/", s.deleteSnapshot)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

// section serves one of nodes.yaml, connections.yaml and groups.yaml.
func (s *Server) section(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	for _, sec := range codec.Sections {
		if file != sec.Filename(codec.Block) {
			continue
		}
		data, err := s.repo.Section(sec)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeBytes(w, codec.Block.ContentType(), data)
		return
	}
	s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no section file %q", file))
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatYAML
	}
	if format != export.FormatYAML && format != export.FormatJSON {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "document format must be yaml or json, got %q", format))
		return
	}
	s.export(w, r, format, export.Options{Formats: []string{format}})
}

func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.Replace(r.Context(), doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc.Stats())
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	q := r.URL.Query()
	opts := export.Options{
		Formats:    []string{format},
		Background: q.Get("background"),
		Refresh:    q.Get("refresh") == "true",
	}
	var err error
	if opts.Width, err = intParam(q.Get("width")); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Height, err = intParam(q.Get("height")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.export(w, r, format, opts)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, format string, opts export.Options) {
	res, err := s.runner.Execute(r.Context(), s.repo.Document(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(res.DocHash))
	if res.CacheHits[format] {
		w.Header().Set("X-Cache", "hit")
	}
	writeBytes(w, export.ContentType(format), res.Artifacts[format])
}

type snapshotResponse struct {
	Workspace string          `json:"workspace"`
	SavedAt   time.Time       `json:"saved_at"`
	Hash      string          `json:"hash"`
	Document  json.RawMessage `json:"document"`
}

func (s *Server) snapshotter(r *http.Request) (*session.Snapshotter, string, error) {
	ws := chi.URLParam(r, "workspace")
	if err := errors.ValidatePath(ws); err != nil || strings.Contains(ws, "/") {
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "invalid workspace %q", ws)
	}
	return session.NewSnapshotter(s.store, s.keyer.SnapshotKey(ws), 0, s.ttl, s.logger.WithPrefix("snapshot")), ws, nil
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snaps, ws, err := s.snapshotter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, ok, err := snaps.Latest(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeSnapshotNotFound, "no snapshot for workspace %q", ws))
		return
	}
	data, err := codec.Marshal(snap.Document, codec.Record)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Workspace: ws, SavedAt: snap.SavedAt, Hash: snap.Hash, Document: data})
}

func (s *Server) putSnapshot(w http.ResponseWriter, r *http.Request) {
	snaps, ws, err := s.snapshotter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := snaps.Save(r.Context(), doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("snapshot stored", "workspace", ws, "entities", doc.Len())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteSnapshot(w http.ResponseWriter, r *http.Request) {
	snaps, _, err := s.snapshotter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := snaps.Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody parses a whole document. The dialect comes from the format
// query parameter, then the Content-Type; YAML is the default.
func decodeBody(r *http.Request) (*model.Document, error) {
	d := codec.Block
	if f := r.URL.Query().Get("format"); f != "" {
		var err error
		if d, err = codec.ParseDialect(f); err != nil {
			return nil, err
		}
	} else if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && strings.HasSuffix(mt, "json") {
		d = codec.Record
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	if len(data) > MaxBodySize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "document larger than %d bytes", MaxBodySize)
	}
	return codec.Unmarshal(data, d)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "expected a non-negative integer, got %q", v)
	}
	return n, nil
}
