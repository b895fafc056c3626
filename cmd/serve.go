package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP front-end for pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mux := newServeMux(ctx, env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

type pipelineRequest struct {
	Query          string `json:"query"`
	ICP            string `json:"icp"`
	Limit          int    `json:"limit"`
	DryRun         bool   `json:"dry_run"`
	SkipEnrichment bool   `json:"skip_enrichment"`
	SkipExport     bool   `json:"skip_export"`
	LinearIssue    string `json:"linear_issue"`
}

type scoreRequest struct {
	Lead model.Lead `json:"lead"`
	ICP  string     `json:"icp"`
}

func newServeMux(ctx context.Context, env *pipelineEnv) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /v1/pipeline", func(w http.ResponseWriter, r *http.Request) {
		var req pipelineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.Query == "" && req.ICP == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query or icp is required"})
			return
		}

		// The run outlives the request; it is tied to the server context.
		go func() {
			report, err := env.Pipeline.Run(ctx, pipeline.Options{
				Query:       req.Query,
				ICPName:     req.ICP,
				Limit:       req.Limit,
				DryRun:      req.DryRun,
				SkipEnrich:  req.SkipEnrichment,
				SkipExport:  req.SkipExport,
				LinearIssue: req.LinearIssue,
			})
			if err != nil {
				zap.L().Error("pipeline request failed",
					zap.String("query", req.Query),
					zap.Error(err))
				return
			}
			zap.L().Info("pipeline request complete",
				zap.String("run_id", report.RunID),
				zap.Int("total_leads", report.TotalLeads))
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	mux.HandleFunc("GET /v1/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		run, err := env.Store.GetRun(r.Context(), r.PathValue("id"))
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store failure"})
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	mux.HandleFunc("POST /v1/score", func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		icp := req.ICP
		if icp == "" {
			icp = pipeline.DefaultProfile
		}
		prof, err := env.Profiles.Load(icp)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown profile: " + icp})
			return
		}

		fit, reasons := scorer.ScoreLead(req.Lead, *prof)
		writeJSON(w, http.StatusOK, map[string]any{
			"fit_score":     fit,
			"score_reasons": reasons,
			"profile":       prof.Name,
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
