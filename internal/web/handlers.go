package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ytcurator/internal/metadata"
)

type ReconcileRequest struct {
	Title     string `json:"title"`
	Uploader  string `json:"uploader"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type JobResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Uploader    string          `json:"uploader,omitempty"`
	Status      JobStatus       `json:"status"`
	Result      *ResolvedTrack  `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   string          `json:"created_at"`
	StartedAt   *string         `json:"started_at,omitempty"`
	CompletedAt *string         `json:"completed_at,omitempty"`
}

// ResolvedTrack is the JSON shape of a reconciled record. Cover bytes stay
// out of the job payload; HasCover tells the client art was found.
type ResolvedTrack struct {
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album"`
	AlbumArtist string   `json:"album_artist"`
	Year        int      `json:"year"`
	TrackNumber int      `json:"track_number"`
	Genre       string   `json:"genre"`
	Lyrics      string   `json:"lyrics"`
	CoverURL    string   `json:"cover_url,omitempty"`
	HasCover    bool     `json:"has_cover"`
	Tags        []string `json:"tags"`
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Uploader) == "" {
		http.Error(w, "title or uploader is required", http.StatusBadRequest)
		return
	}

	job := s.jobMgr.CreateJob(req.Title, req.Uploader, req.Thumbnail)
	s.logger.Info("Created job %s for %q", job.ID, req.Title)

	go s.processJob(job)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = s.jobToResponse(job)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from path: /api/jobs/{id} or /api/jobs/{id}/cancel
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	// Handle GET /api/jobs/{id}
	if r.Method == http.MethodGet && len(parts) == 1 {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.jobToResponse(job))
		return
	}

	// Handle POST /api/jobs/{id}/cancel
	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel" {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		if job.Cancel != nil {
			job.Cancel()
		}

		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
		})

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
		return
	}

	http.Error(w, "Invalid request", http.StatusBadRequest)
}

func (s *Server) handleGenreStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.genres.Stats())
}

func (s *Server) processJob(job *Job) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Cancel = cancel
	})

	// Wait for a free slot; a cancel while queued still wins.
	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		return
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusRunning
	})
	s.logger.Info("Starting job %s", job.ID)

	q := metadata.RawQuery{
		Title:  job.Title,
		Artist: job.Uploader,
		Extra: map[string]string{
			"uploader":  job.Uploader,
			"thumbnail": job.Thumbnail,
		},
	}

	rec, err := s.engine.Process(ctx, q)
	if err != nil {
		s.logger.Error("Job %s failed: %v", job.ID, err)
		s.jobMgr.UpdateJob(job.ID, func(j *Job) {
			j.Status = StatusFailed
			j.Error = err.Error()
		})
		return
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		if j.Status == StatusCancelled {
			return
		}
		j.Result = &rec
		j.Status = StatusCompleted
	})

	s.logger.Info("Job %s completed successfully", job.ID)
}

func (s *Server) jobToResponse(job *Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		Title:     job.Title,
		Uploader:  job.Uploader,
		Status:    job.Status,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	if job.Result != nil {
		resp.Result = &ResolvedTrack{
			Title:       job.Result.Title,
			Artist:      job.Result.Artist,
			Album:       job.Result.Album,
			AlbumArtist: job.Result.AlbumArtist,
			Year:        job.Result.Year,
			TrackNumber: job.Result.TrackNumber,
			Genre:       job.Result.Genre,
			Lyrics:      job.Result.Lyrics,
			CoverURL:    job.Result.CoverURL,
			HasCover:    len(job.Result.CoverData) > 0,
			Tags:        job.Result.Tags,
		}
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format("2006-01-02 15:04:05")
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format("2006-01-02 15:04:05")
		resp.CompletedAt = &completed
	}

	return resp
}
