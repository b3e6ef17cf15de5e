package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "pricepulse/internal/errors"
	"pricepulse/internal/exporter"
	"pricepulse/internal/middleware"
	"pricepulse/internal/pricehistory"
	"pricepulse/internal/services"
	api "pricepulse/pkg/contracts/api/v1"
)

// AnalysisHandler handles analysis requests with RFC 7807 compliance
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validation   *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	query        *middleware.QueryParamValidator
	fetchTimeout time.Duration
}

// NewAnalysisHandler creates a new analysis handler. fetchTimeout bounds the
// listing route; zero leaves it to the server.
func NewAnalysisHandler(service AnalysisServiceInterface, validation *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, fetchTimeout time.Duration) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		validation:   validation,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		fetchTimeout: fetchTimeout,
	}
}

// Routes returns the analysis routes, mounted under /api
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/analysis/latest", h.GetLatest)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeValidator("application/json"))
		r.Use(h.validation.ValidateRequest)

		r.Post("/analyze", h.Analyze)

		r.Group(func(r chi.Router) {
			if h.fetchTimeout > 0 {
				r.Use(middleware.Timeout(h.fetchTimeout))
			}
			r.Post("/listings/analyze", h.AnalyzeListing)
		})
	})

	return r
}

// Analyze handles POST /api/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if err := h.validation.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var raw []pricehistory.RawPoint
	if err := json.Unmarshal(req.Points, &raw); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("points", "points must be an array of [timestamp, price] records"))
		return
	}

	h.logger.InfoContext(r.Context(), "analysis requested",
		slog.String("item_name", req.ItemName),
		slog.Int("raw_points", len(raw)),
		slog.Int("window_days", req.WindowDays))

	result, err := h.service.AnalyzePoints(r.Context(), req.ItemName, raw, runOptions(req.WindowDays, req.Export))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toResponse(result))
}

// AnalyzeListing handles POST /api/listings/analyze
func (h *AnalysisHandler) AnalyzeListing(w http.ResponseWriter, r *http.Request) {
	var req api.ListingAnalyzeRequest
	if err := h.validation.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "listing analysis requested",
		slog.String("url", req.URL),
		slog.String("item_name", req.ItemName))

	result, err := h.service.AnalyzeListing(r.Context(), req.URL, req.ItemName, runOptions(req.WindowDays, req.Export))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toResponse(result))
}

// GetLatest handles GET /api/analysis/latest. include_series=false drops
// the point-level arrays.
func (h *AnalysisHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	includeSeries, ok := h.query.ValidateBool(w, r, "include_series", true)
	if !ok {
		return
	}

	result, err := h.service.Last()
	if err != nil {
		if errors.Is(err, services.ErrNothingAnalyzed) {
			h.errorHandler.HandleError(w, r, apierrors.NotFoundError("analysis result"))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := toResponse(result)
	if !includeSeries {
		resp.Series = nil
		resp.Chart.Labels = nil
		resp.Chart.Prices = nil
	}
	render.JSON(w, r, resp)
}

func runOptions(windowDays int, export *bool) services.RunOptions {
	opts := services.RunOptions{Export: export}
	if windowDays > 0 {
		opts.Window = time.Duration(windowDays) * 24 * time.Hour
	}
	return opts
}

// toResponse projects a service result onto the API contract
func toResponse(result *services.AnalysisResult) api.AnalysisResponse {
	report := result.Report
	st := report.Statistics

	resp := api.AnalysisResponse{
		RunID:        result.RunID,
		ItemName:     result.ItemName,
		Instrument:   exporter.InstrumentLabel(result.ItemName),
		Source:       result.Source,
		RawPoints:    report.RawPoints,
		Normalized:   report.Normalized,
		Skipped:      make([]api.SkippedPointDTO, 0, len(report.Skipped)),
		WindowDays:   report.Window.Hours() / 24,
		Cutoff:       report.Cutoff,
		UsedFallback: report.UsedFallback,
		Statistics: api.StatisticsDTO{
			StartDate:       st.StartDate,
			EndDate:         st.EndDate,
			TotalPoints:     st.TotalPoints,
			AvgGapMinutes:   st.AvgGapMinutes,
			MinGapMinutes:   st.MinGapMinutes,
			MaxGapMinutes:   st.MaxGapMinutes,
			NoGapsAvailable: st.NoGapsAvailable,
		},
		Series: make([]api.PointDTO, len(st.Series)),
		Chart: api.ChartDTO{
			Title:   result.Chart.Title,
			XLabel:  result.Chart.XLabel,
			YLabel:  result.Chart.YLabel,
			Labels:  result.Chart.Labels,
			Prices:  result.Chart.Prices,
			Caption: result.Chart.Caption,

			ImageFile: result.Chart.ImageFile,
		},
		DurationMS: result.Duration.Milliseconds(),
	}

	for _, pe := range report.Skipped {
		resp.Skipped = append(resp.Skipped, api.SkippedPointDTO{
			Index:  pe.Index,
			Field:  pe.Field,
			Value:  pe.Value.String(),
			Reason: pe.Err.Error(),
		})
	}
	for i, p := range st.Series {
		resp.Series[i] = api.PointDTO{Timestamp: p.Timestamp, Date: p.Date, Price: p.Price}
	}
	if f := result.Files; f != nil {
		resp.Export = &api.ExportDTO{
			Detailed:   f.Detailed,
			Simplified: f.Simplified,
			Summary:    f.Summary,
			Workbook:   f.Workbook,
		}
	}
	return resp
}
