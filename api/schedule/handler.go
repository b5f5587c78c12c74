// Package schedule exposes the scheduler over HTTP.
package schedule

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/kilianp07/vpp/core/analysis"
	"github.com/kilianp07/vpp/core/datagen"
	"github.com/kilianp07/vpp/core/logger"
	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/policy"
	"github.com/kilianp07/vpp/core/runlog"
	"github.com/kilianp07/vpp/core/scheduler"
)

// Runner is the part of the scheduler the API drives.
type Runner interface {
	Run(ctx context.Context, job scheduler.Job) scheduler.Outcome
	CompareModes(ctx context.Context, obj model.OptimizationObjective, grid model.TimeGrid, series model.ResourceSeries) scheduler.Report
}

// Options configures a Handler.
type Options struct {
	// Token, when set, is required as a bearer token on the run history.
	Token          string
	AllowedOrigins []string
	MaxPeriods     int
	// Datagen is the base of the synthetic data drawn for each request.
	Datagen datagen.Config
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	Log     logger.Logger
}

// Handler serves the scheduling API.
type Handler struct {
	runner Runner
	store  runlog.Store
	opts   Options
	log    logger.Logger
	http   http.Handler
}

// NewHandler builds the routes. store may be nil, in which case the run
// history answers 404.
func NewHandler(runner Runner, store runlog.Store, opts Options) *Handler {
	if opts.MaxPeriods <= 0 {
		opts.MaxPeriods = 672
	}
	h := &Handler{runner: runner, store: store, opts: opts, log: logger.OrNop(opts.Log)}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(h.recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	api := r.Group("/api/v1")
	{
		api.GET("/modes", h.listModes)
		api.GET("/objectives", h.listObjectives)
		api.POST("/schedule", h.schedule)
		api.POST("/compare", h.compare)
		if store != nil {
			api.GET("/runs", h.auth(), h.runs)
		}
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h.http = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(r)
	return h
}

// ServeHTTP applies CORS and dispatches to the routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.http.ServeHTTP(w, r) }

// ErrorDetail is the body of an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}

// StatusFor maps an error class to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInfeasible):
		return http.StatusConflict
	case errors.Is(err, model.ErrSolverUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrSolverTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		h.log.Errorf("panic serving %s: %v", c.Request.URL.Path, recovered)
		fail(c, http.StatusInternalServerError, "internal", "an unexpected error occurred")
	})
}

func (h *Handler) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.opts.Token != "" && c.GetHeader("Authorization") != "Bearer "+h.opts.Token {
			fail(c, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		c.Next()
	}
}

type modeInfo struct {
	Mode        string                      `json:"mode"`
	Description string                      `json:"description"`
	Resources   policy.ResourceInclusionSet `json:"resources"`
}

func (h *Handler) listModes(c *gin.Context) {
	out := make([]modeInfo, 0, len(model.AllModes()))
	for _, m := range model.AllModes() {
		out = append(out, modeInfo{Mode: m.String(), Description: policy.Describe(m), Resources: policy.ResourcesFor(m)})
	}
	c.JSON(http.StatusOK, out)
}

type objectiveInfo struct {
	Objective    string              `json:"objective"`
	Description  string              `json:"description"`
	Expression   string              `json:"expression"`
	Coefficients policy.Coefficients `json:"coefficients"`
}

func (h *Handler) listObjectives(c *gin.Context) {
	out := make([]objectiveInfo, 0, len(model.AllObjectives()))
	for _, o := range model.AllObjectives() {
		out = append(out, objectiveInfo{
			Objective:    o.String(),
			Description:  policy.DescribeObjective(o),
			Expression:   policy.ObjectiveExpression(o),
			Coefficients: policy.CoefficientsFor(o),
		})
	}
	c.JSON(http.StatusOK, out)
}

// DataRequest selects the synthetic input of a request. Zero fields keep
// the server defaults.
type DataRequest struct {
	Seed        int64 `json:"seed"`
	Periods     int   `json:"periods"`
	StepMinutes int   `json:"step_minutes"`
}

func (h *Handler) dataset(req DataRequest) (datagen.Dataset, error) {
	cfg := h.opts.Datagen
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if req.Periods != 0 {
		cfg.Periods = req.Periods
	}
	if req.StepMinutes != 0 {
		cfg.StepMinutes = req.StepMinutes
	}
	if cfg.Periods > h.opts.MaxPeriods || cfg.Periods < 0 || cfg.StepMinutes < 0 {
		return datagen.Dataset{}, errors.New("periods or step_minutes out of range")
	}
	return datagen.New(cfg).Generate()
}

// ScheduleRequest is the body of POST /api/v1/schedule.
type ScheduleRequest struct {
	Mode      string `json:"mode" binding:"required"`
	Objective string `json:"objective"`
	DataRequest
}

// ScheduleResponse is a solved run.
type ScheduleResponse struct {
	RunID       string           `json:"run_id"`
	Attempts    int              `json:"attempts"`
	DurationMS  int64            `json:"duration_ms"`
	ProfitFloor *float64         `json:"profit_floor,omitempty"`
	Summary     analysis.Summary `json:"summary"`
	Report      *analysis.Report `json:"report"`
}

func (h *Handler) schedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid_mode", err.Error())
		return
	}
	obj := model.ObjectiveCostMinimization
	if req.Objective != "" {
		if obj, err = model.ParseObjective(req.Objective); err != nil {
			fail(c, http.StatusBadRequest, "invalid_objective", err.Error())
			return
		}
	}
	data, err := h.dataset(req.DataRequest)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid_data", err.Error())
		return
	}

	out := h.runner.Run(c.Request.Context(), scheduler.Job{
		Name: mode.String(), Mode: mode, Objective: obj, Grid: data.Grid, Series: data.Series,
	})
	if !out.OK() {
		fail(c, StatusFor(out.Err), out.Status(), out.Err.Error())
		return
	}
	resp := ScheduleResponse{
		RunID:       out.RunID,
		DurationMS:  out.Duration.Milliseconds(),
		ProfitFloor: out.ProfitFloor,
		Summary:     analysis.Summarize(out.Report),
		Report:      out.Report,
	}
	if out.Result != nil {
		resp.Attempts = out.Result.Stats.Attempts
	}
	c.JSON(http.StatusOK, resp)
}

// CompareRequest is the body of POST /api/v1/compare.
type CompareRequest struct {
	Objective string `json:"objective"`
	DataRequest
}

func (h *Handler) compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	obj := model.ObjectiveCostMinimization
	if req.Objective != "" {
		var err error
		if obj, err = model.ParseObjective(req.Objective); err != nil {
			fail(c, http.StatusBadRequest, "invalid_objective", err.Error())
			return
		}
	}
	data, err := h.dataset(req.DataRequest)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid_data", err.Error())
		return
	}
	rep := h.runner.CompareModes(c.Request.Context(), obj, data.Grid, data.Series)
	c.JSON(http.StatusOK, rep.Comparison)
}

func (h *Handler) runs(c *gin.Context) {
	q := runlog.Query{
		Mode:      c.Query("mode"),
		Objective: c.Query("objective"),
		Status:    c.Query("status"),
	}
	for key, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
		if s := c.Query(key); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				fail(c, http.StatusBadRequest, "invalid_"+key, err.Error())
				return
			}
			*dst = t
		}
	}
	records, err := h.store.Query(c.Request.Context(), q)
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if records == nil {
		records = []runlog.RunRecord{}
	}
	c.JSON(http.StatusOK, records)
}
