package web

import (
	"context"
	"net/http"

	"ytcurator/internal/config"
	"ytcurator/internal/logger"
	"ytcurator/internal/metadata"
)

type Server struct {
	ctx    context.Context
	jobMgr *JobManager
	engine *metadata.Engine
	genres *metadata.GenreResolver
	config config.Config
	logger *logger.Logger

	// Bounds the number of reconciliations running at once; jobs queue on it.
	slots chan struct{}
}

func NewServer(ctx context.Context, jobMgr *JobManager, engine *metadata.Engine, genres *metadata.GenreResolver, cfg config.Config, log *logger.Logger) *Server {
	jobs := cfg.ParallelJobs
	if jobs <= 0 {
		jobs = 1
	}
	return &Server{
		ctx:    ctx,
		jobMgr: jobMgr,
		engine: engine,
		genres: genres,
		config: cfg,
		logger: log,
		slots:  make(chan struct{}, jobs),
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/reconcile", s.handleReconcile)
	mux.HandleFunc("/api/jobs", s.handleListJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobAction)
	mux.HandleFunc("/api/genre-stats", s.handleGenreStats)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
