package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/99souls/ariadne/engine"
	"github.com/99souls/ariadne/engine/models"
)

func main() {
	var (
		addr        string
		metricsAddr string
		healthAddr  string
		configPath  string
	)
	flag.StringVar(&addr, "addr", ":8080", "address for the analysis API")
	flag.StringVar(&metricsAddr, "metrics-addr", ":9090", "address for the Prometheus metrics endpoint")
	flag.StringVar(&healthAddr, "health-addr", ":9091", "address for the health endpoint")
	flag.StringVar(&configPath, "config", "", "optional YAML overlay for join-timeout/cache/metrics settings")
	flag.Parse()

	cfg := engine.Defaults()
	cfg.Satellite.Username = os.Getenv("TRAILSAFE_SATELLITE_USERNAME")
	cfg.Satellite.Password = os.Getenv("TRAILSAFE_SATELLITE_PASSWORD")
	cfg.GroundStation.APIKey = os.Getenv("TRAILSAFE_GROUNDSTATION_API_KEY")
	cfg.Summary.APIKey = os.Getenv("TRAILSAFE_SUMMARY_API_KEY")
	if configPath != "" {
		merged, err := engine.LoadOverlay(configPath, cfg)
		if err != nil {
			log.Fatalf("load config overlay: %v", err)
		}
		cfg = merged
	}

	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("engine.New: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if configPath != "" {
		go engine.WatchOverlay(ctx, configPath)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", analyzeHandler(eng))
	apiSrv := &http.Server{Addr: addr, Handler: mux}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", healthHandler(eng))
	healthSrv := &http.Server{Addr: healthAddr, Handler: healthMux}

	var metricsSrv *http.Server
	if h := eng.MetricsHandler(); h != nil {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h)
		metricsSrv = &http.Server{Addr: metricsAddr, Handler: metricsMux}
	}

	errs := make(chan error, 3)
	go func() { errs <- apiSrv.ListenAndServe() }()
	go func() { errs <- healthSrv.ListenAndServe() }()
	if metricsSrv != nil {
		go func() { errs <- metricsSrv.ListenAndServe() }()
	}

	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = healthSrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func analyzeHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req models.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := eng.Analyze(r.Context(), req)
		if err != nil {
			if isValidationError(err) {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		models.ErrInvalidLatitude,
		models.ErrInvalidLongitude,
		models.ErrInvalidDuration,
		models.ErrMissingActivity,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func healthHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := eng.HealthSnapshot(r.Context())
		status := http.StatusOK
		if snap.Overall != "healthy" && snap.Overall != "" {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(snap)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
