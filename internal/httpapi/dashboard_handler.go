package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"footfall-data/internal/repository"
	"footfall-data/internal/service"
)

// DashboardHandler 仪表盘数据接口
type DashboardHandler struct {
	dashboard    *service.DashboardService
	distribution *service.DistributionService
	readings     repository.ReadingsRepository
	logger       *zap.Logger
}

func NewDashboardHandler(
	dashboard *service.DashboardService,
	distribution *service.DistributionService,
	readings repository.ReadingsRepository,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		dashboard:    dashboard,
		distribution: distribution,
		readings:     readings,
		logger:       logger,
	}
}

// Dashboard POST /api/dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var req service.DashboardRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.dashboard.Dashboard(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("dashboard query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Distribution GET /api/footfall-distribution
func (h *DashboardHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	resp, err := h.distribution.Distribution(r.Context())
	if err != nil {
		h.logger.Error("distribution query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AllTimeSlots GET /api/alltime
// 返回数据里出现过的去重时段列表，供前端的时段选择器使用
func (h *DashboardHandler) AllTimeSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.readings.DistinctTimeSlots(r.Context(),
		r.URL.Query().Get("date_start"),
		r.URL.Query().Get("date_end"))
	if err != nil {
		h.logger.Error("time slots query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if slots == nil {
		slots = []repository.TimeSlot{}
	}
	writeJSON(w, http.StatusOK, slots)
}
