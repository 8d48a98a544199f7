package handlers

import (
	"context"
	"errors"
	"net/http"

	e "github.com/Idanushka/CovidApts/internal/covidapts/errors"
	"github.com/Idanushka/CovidApts/internal/covidapts/models"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
)

// StatisticsController is the statistics service as seen by the handlers.
type StatisticsController interface {
	Dashboard(ctx context.Context, address string) (*models.Dashboard, error)
	MonthlyBarData(ctx context.Context, address string) ([]models.MonthCount, error)
	Classify(ctx context.Context, address string, month int) (*models.Advice, error)
}

// StatisticsHandler serves the dashboard data endpoints.
type StatisticsHandler struct {
	responder
	service StatisticsController
}

// NewStatisticsHandler constructs a StatisticsHandler.
func NewStatisticsHandler(service StatisticsController, logger *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		responder: responder{logger: logger.Named("statistics_handler")},
		service:   service,
	}
}

// RegisterRoutes binds the statistics endpoints to mux.
func (h *StatisticsHandler) RegisterRoutes(mux *runtime.ServeMux) error {
	h.mux = mux
	if err := mux.HandlePath(http.MethodGet, "/statistics", h.dashboard); err != nil {
		return err
	}
	if err := mux.HandlePath(http.MethodGet, "/statistics/companies-by-apartment", h.companiesByApartment); err != nil {
		return err
	}
	return mux.HandlePath(http.MethodGet, "/statistics/classify", h.classify)
}

func (h *StatisticsHandler) dashboard(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	dashboard, err := h.service.Dashboard(r.Context(), r.URL.Query().Get("address"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, dashboard)
}

func (h *StatisticsHandler) companiesByApartment(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	bars, err := h.service.MonthlyBarData(r.Context(), r.URL.Query().Get("address"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, bars)
}

// classify answers with {message}. A month outside 1..12 is answered with the
// same shape and a 400 status.
func (h *StatisticsHandler) classify(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	q := r.URL.Query()
	month, err := parseMonth(q.Get("month"))
	if err == nil {
		var advice *models.Advice
		advice, err = h.service.Classify(r.Context(), q.Get("address"), month)
		if err == nil {
			h.writeJSON(w, r, http.StatusOK, advice)
			return
		}
	}

	if errors.Is(err, e.ErrInvalidMonth) {
		h.writeJSON(w, r, http.StatusBadRequest, models.Advice{Message: e.ErrInvalidMonth.Error()})
		return
	}
	h.writeError(w, r, err)
}
