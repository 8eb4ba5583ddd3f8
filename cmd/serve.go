package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/graph-directory/directory-cli/internal/business"
	"github.com/graph-directory/directory-cli/internal/ingest"
	"github.com/graph-directory/directory-cli/internal/model"
	"github.com/graph-directory/directory-cli/internal/review"
)

var servePort int

// runReader is the run history surface the admin API reads.
type runReader interface {
	List(ctx context.Context, limit int) ([]model.IngestionRun, error)
	Get(ctx context.Context, id string) (*model.IngestionRun, error)
}

// reviewer is the review gate surface the admin API drives.
type reviewer interface {
	ListPending(ctx context.Context, limit int) ([]model.SuggestedUpdate, error)
	Approve(ctx context.Context, id, reviewedBy string) error
	Reject(ctx context.Context, id, reviewedBy string) error
}

// adminServer is the read-mostly JSON API over the ingestion audit trail.
// The only writes it performs go through the review gate.
type adminServer struct {
	runs  runReader
	leads ingest.Store
	gate  reviewer
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		pool, err := dbPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		srv := &adminServer{
			runs:  ingest.NewRunLog(pool),
			leads: ingest.NewPostgresStore(pool),
			gate:  review.NewGate(review.NewPostgresStore(pool), business.NewPostgresStore(pool)),
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newAdminRouter(srv, cfg.Server.AllowedOrigins),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = httpSrv.Shutdown(context.Background())
		}()

		zap.L().Info("starting admin server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}
		return nil
	},
}

func newAdminRouter(srv *adminServer, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/runs", srv.handleListRuns)
	r.Get("/runs/{id}", srv.handleGetRun)
	r.Get("/leads/{id}", srv.handleGetLead)
	r.Get("/suggestions", srv.handleListSuggestions)
	r.Post("/suggestions/{id}/approve", srv.handleApprove)
	r.Post("/suggestions/{id}/reject", srv.handleReject)
	return r
}

func (s *adminServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.List(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []model.IngestionRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *adminServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleGetLead returns a raw lead with its evidence rows and match, the
// full audit view for one observation.
func (s *adminServer) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lead, err := s.leads.GetRawLead(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if lead == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "lead not found"})
		return
	}

	evidence, err := s.leads.ListEvidence(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	match, err := s.leads.GetMatch(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lead":     lead,
		"evidence": evidence,
		"match":    match,
	})
}

func (s *adminServer) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	// Only the pending queue is served; reviewed suggestions are terminal
	// and reachable through the lead audit view.
	pending, err := s.gate.ListPending(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if pending == nil {
		pending = []model.SuggestedUpdate{}
	}
	writeJSON(w, http.StatusOK, pending)
}

type reviewRequest struct {
	ReviewedBy string `json:"reviewed_by"`
}

func (s *adminServer) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.handleReview(w, r, s.gate.Approve)
}

func (s *adminServer) handleReject(w http.ResponseWriter, r *http.Request) {
	s.handleReview(w, r, s.gate.Reject)
}

func (s *adminServer) handleReview(w http.ResponseWriter, r *http.Request, act func(context.Context, string, string) error) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReviewedBy == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reviewed_by is required"})
		return
	}

	err := act(r.Context(), chi.URLParam(r, "id"), req.ReviewedBy)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case eris.Is(err, review.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case eris.Is(err, review.ErrAlreadyReviewed),
		eris.Is(err, review.ErrFieldNotAllowed),
		eris.Is(err, review.ErrTargetNotDraft):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	zap.L().Error("admin api error", zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
