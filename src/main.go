package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"crosswarped.com/snailfish"
	"crosswarped.com/snailfish/pkg/number"
)

const (
	modeSum     = "sum"
	modeLargest = "largest"

	// modeInvalid is the metric label for any mode other than sum or largest.
	modeInvalid = "invalid"
)

var errInvalidRequest = errors.New("invalid request")

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snailfish_homework_requests_total",
		Help: "Homework requests by mode and result",
	}, []string{"mode", "result"})

	rewritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snailfish_rewrites_total",
		Help: "Explode and split rewrites performed while reducing",
	}, []string{"action"})

	homeworkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snailfish_homework_duration_seconds",
		Help:    "Time spent computing a homework answer",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	}, []string{"mode"})
)

type HomeworkRequest struct {
	Numbers    []string `json:"numbers"`
	Assignment string   `json:"assignment"`
	Mode       string   `json:"mode"`
}

type HomeworkResponse struct {
	Success   bool   `json:"success"`
	Magnitude int    `json:"magnitude"`
	Sum       string `json:"sum,omitempty"`
	// Pair holds the 1-based lines of the best pair in "largest" mode.
	Pair  []int  `json:"pair,omitempty"`
	Error string `json:"error,omitempty"`
}

type server struct {
	cfg    config
	source lineSource
	log    *zap.Logger
}

func (s *server) lines(ctx context.Context, log *zap.Logger, req HomeworkRequest) ([]string, error) {
	lines := req.Numbers
	if req.Assignment != "" {
		stored, err := s.source.Lines(ctx, req.Assignment)
		if err != nil {
			return nil, fmt.Errorf("getLines: %w", err)
		}
		log.Info("loaded assignment", zap.String("assignment", req.Assignment), zap.Int("lines", len(stored)))
		lines = append(lines, stored...)
	}
	if len(lines) == 0 {
		return nil, errors.Wrap(errInvalidRequest, "numbers must not be empty")
	}
	if len(lines) > s.cfg.MaxLines {
		return nil, errors.Wrapf(errInvalidRequest, "at most %d numbers are allowed, got %d", s.cfg.MaxLines, len(lines))
	}
	for i, line := range lines {
		if len(line) > s.cfg.MaxLineBytes {
			return nil, errors.Wrapf(errInvalidRequest, "line %d is %d bytes, at most %d are allowed", i+1, len(line), s.cfg.MaxLineBytes)
		}
	}
	return lines, nil
}

func modeLabel(mode string) string {
	switch mode {
	case modeSum, modeLargest:
		return mode
	default:
		return modeInvalid
	}
}

func (s *server) execute(ctx context.Context, log *zap.Logger, req HomeworkRequest) (HomeworkResponse, error) {
	if req.Mode == "" {
		req.Mode = modeSum
	}
	if req.Mode != modeSum && req.Mode != modeLargest {
		return HomeworkResponse{}, errors.Wrapf(errInvalidRequest, "mode must be %q or %q, got %q", modeSum, modeLargest, req.Mode)
	}

	lines, err := s.lines(ctx, log, req)
	if err != nil {
		return HomeworkResponse{}, err
	}
	hw, err := snailfish.ParseHomework(lines)
	if err != nil {
		return HomeworkResponse{}, err
	}

	start := time.Now()
	defer func() {
		homeworkDuration.WithLabelValues(req.Mode).Observe(time.Since(start).Seconds())
	}()

	if req.Mode == modeSum {
		var stats number.Stats
		sum, err := hw.Sum(number.WithMaxSteps(s.cfg.MaxSteps), number.WithStats(&stats))
		if err != nil {
			return HomeworkResponse{}, err
		}
		recordRewrites(stats)
		return HomeworkResponse{Success: true, Magnitude: sum.Magnitude(), Sum: sum.String()}, nil
	}

	deadline, ok := ctx.Deadline()
	timeout := 1 * time.Minute
	if ok {
		timeout = time.Until(deadline) - 5*time.Second
		log.Debug("setting timeout", zap.Duration("timeout", timeout))
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := hw.LargestMagnitude(ctx, snailfish.LargestParams{
		Workers:  s.cfg.Workers,
		MaxSteps: s.cfg.MaxSteps,
	})
	if err != nil {
		return HomeworkResponse{}, err
	}
	recordRewrites(res.Stats)
	return HomeworkResponse{
		Success:   true,
		Magnitude: res.Magnitude,
		Sum:       res.Sum,
		Pair:      []int{res.First + 1, res.Second + 1},
	}, nil
}

func recordRewrites(stats number.Stats) {
	rewritesTotal.WithLabelValues(number.ActionExplode.String()).Add(float64(stats.Explodes))
	rewritesTotal.WithLabelValues(number.ActionSplit.String()).Add(float64(stats.Splits))
}

// statusFor maps bad input to 400 and everything else, broken invariants
// included, to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, number.ErrMalformed),
		errors.Is(err, number.ErrEmpty):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Content-Type", "application/json")
}

func (s *server) handleHomework(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	log := s.log.With(zap.String("request_id", requestID))

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		fmt.Fprintf(w, `{"success": false, "error": "Method %s not allowed"}`, r.Method)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	var req HomeworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		log.Warn("invalid JSON body", zap.Int("status", status), zap.Error(err))
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(HomeworkResponse{
			Success: false,
			Error:   fmt.Sprintf("Invalid JSON: %v", err),
		})
		requestsTotal.WithLabelValues(modeInvalid, "bad_request").Inc()
		return
	}

	if req.Mode == "" {
		req.Mode = modeSum
	}
	resp, err := s.execute(r.Context(), log, req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("homework failed", zap.String("mode", req.Mode), zap.Error(err))
		} else {
			log.Info("homework rejected", zap.String("mode", req.Mode), zap.Error(err))
		}
		resp = HomeworkResponse{Success: false, Error: err.Error()}
		w.WriteHeader(status)
		requestsTotal.WithLabelValues(modeLabel(req.Mode), http.StatusText(status)).Inc()
	} else {
		log.Info("homework answered", zap.String("mode", req.Mode), zap.Int("magnitude", resp.Magnitude))
		requestsTotal.WithLabelValues(modeLabel(req.Mode), "ok").Inc()
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("error marshaling response", zap.Error(err))
	}
}

func newLogger(cfg config) (*zap.Logger, error) {
	if cfg.LocalOnly {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("loadConfig: %v\n", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("newLogger: %v\n", err)
	}
	defer logger.Sync()

	s := &server{
		cfg:    cfg,
		source: newBigQuerySource(cfg),
		log:    logger,
	}
	funcframework.RegisterHTTPFunction("/homework", s.handleHomework)
	funcframework.RegisterHTTPFunction("/metrics", promhttp.Handler().ServeHTTP)

	hostname := ""
	if cfg.LocalOnly {
		hostname = "127.0.0.1"
	}
	logger.Info("starting", zap.String("port", cfg.Port), zap.String("project", cfg.Project))
	if err := funcframework.StartHostPort(hostname, cfg.Port); err != nil {
		logger.Fatal("funcframework.StartHostPort", zap.Error(err))
	}
}
