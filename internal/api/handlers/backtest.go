package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/insiderlab/quant/internal/backtest"
	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/config"
	"github.com/insiderlab/quant/pkg/logger"
)

// BacktestRunner executes backtests over freshly assembled inputs.
type BacktestRunner interface {
	Run(ctx context.Context, cfg backtest.Config) (*contracts.BacktestReport, error)
	Sweep(ctx context.Context, base backtest.Config, params backtest.SweepParams, workers int) ([]backtest.SweepResult, error)
}

// BacktestHandler handles backtest API endpoints.
type BacktestHandler struct {
	runner   BacktestRunner
	defaults config.BacktestConfig
	logger   *logger.Logger
}

// NewBacktestHandler creates a backtest handler.
func NewBacktestHandler(runner BacktestRunner, defaults config.BacktestConfig, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		runner:   runner,
		defaults: defaults,
		logger:   log,
	}
}

type backtestRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	HoldDays       *int     `json:"hold_days,omitempty"`
	TopN           *int     `json:"top_n,omitempty"`
	InitialCash    *float64 `json:"initial_cash,omitempty"`
	CommissionRate *float64 `json:"commission_rate,omitempty"`
	Sizing         string   `json:"sizing,omitempty"`
	FixedShares    int64    `json:"fixed_shares,omitempty"`
	LeaveOpen      bool     `json:"leave_open,omitempty"`
}

type sweepRequest struct {
	backtestRequest
	SweepHoldDays []int `json:"sweep_hold_days"`
	SweepTopN     []int `json:"sweep_top_n"`
	Workers       int   `json:"workers,omitempty"`
}

// buildConfig merges the request over the configured defaults.
func (h *BacktestHandler) buildConfig(req backtestRequest) (backtest.Config, error) {
	cfg := backtest.DefaultConfig()
	cfg.HoldDays = h.defaults.HoldDays
	cfg.TopN = h.defaults.TopN
	cfg.InitialCash = h.defaults.InitialCash
	cfg.CommissionRate = h.defaults.CommissionRate

	start, err := contracts.ParseDay(req.StartDate)
	if err != nil {
		return cfg, err
	}
	end, err := contracts.ParseDay(req.EndDate)
	if err != nil {
		return cfg, err
	}
	cfg.StartDay, cfg.EndDay = start, end

	if req.HoldDays != nil {
		cfg.HoldDays = *req.HoldDays
	}
	if req.TopN != nil {
		cfg.TopN = *req.TopN
	}
	if req.InitialCash != nil {
		cfg.InitialCash = *req.InitialCash
	}
	if req.CommissionRate != nil {
		cfg.CommissionRate = *req.CommissionRate
	}
	if req.Sizing != "" {
		cfg.Sizing = backtest.SizingMode(req.Sizing)
	}
	if req.FixedShares > 0 {
		cfg.FixedShares = req.FixedShares
	}
	cfg.ForceCloseAtEnd = !req.LeaveOpen

	return cfg, cfg.Validate()
}

// Run executes a single backtest.
// POST /api/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, err := h.buildConfig(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.runner.Run(r.Context(), cfg)
	if err != nil {
		h.logger.WithError(err).Error("Backtest run failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Sweep executes a parameter sweep.
// POST /api/backtest/sweep
func (h *BacktestHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.SweepHoldDays) == 0 || len(req.SweepTopN) == 0 {
		writeError(w, http.StatusBadRequest, "sweep_hold_days and sweep_top_n are required")
		return
	}

	cfg, err := h.buildConfig(req.backtestRequest)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.runner.Sweep(r.Context(), cfg, backtest.SweepParams{
		HoldDays: req.SweepHoldDays,
		TopN:     req.SweepTopN,
	}, req.Workers)
	if err != nil {
		h.logger.WithError(err).Error("Backtest sweep failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(results),
		"results": results,
	})
}
