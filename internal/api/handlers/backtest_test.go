package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insiderlab/quant/internal/backtest"
	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/config"
	"github.com/insiderlab/quant/pkg/logger"
)

type stubRunner struct {
	lastConfig backtest.Config
	report     *contracts.BacktestReport
	err        error
}

func (s *stubRunner) Run(_ context.Context, cfg backtest.Config) (*contracts.BacktestReport, error) {
	s.lastConfig = cfg
	return s.report, s.err
}

func (s *stubRunner) Sweep(_ context.Context, base backtest.Config, params backtest.SweepParams, _ int) ([]backtest.SweepResult, error) {
	s.lastConfig = base
	if s.err != nil {
		return nil, s.err
	}
	var results []backtest.SweepResult
	for _, h := range params.HoldDays {
		for _, n := range params.TopN {
			results = append(results, backtest.SweepResult{HoldDays: h, TopN: n, Report: s.report})
		}
	}
	return results, nil
}

func defaults() config.BacktestConfig {
	return config.BacktestConfig{
		HoldDays:       30,
		TopN:           3,
		InitialCash:    100_000,
		CommissionRate: 0.001,
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/backtest", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestBacktestHandler_Run(t *testing.T) {
	runner := &stubRunner{report: &contracts.BacktestReport{RunID: "run-1", FinalValue: 101_000}}
	h := NewBacktestHandler(runner, defaults(), logger.Nop())

	rec := postJSON(t, h.Run, map[string]interface{}{
		"start_date": "2024-01-02",
		"end_date":   "2024-06-28",
		"top_n":      5,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var report contracts.BacktestReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)

	// Overrides land on the config, defaults fill the rest.
	assert.Equal(t, 5, runner.lastConfig.TopN)
	assert.Equal(t, 30, runner.lastConfig.HoldDays)
	assert.True(t, runner.lastConfig.ForceCloseAtEnd)
}

func TestBacktestHandler_RunRejectsBadDates(t *testing.T) {
	h := NewBacktestHandler(&stubRunner{}, defaults(), logger.Nop())

	rec := postJSON(t, h.Run, map[string]interface{}{
		"start_date": "not-a-date",
		"end_date":   "2024-06-28",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBacktestHandler_RunRejectsInvalidConfig(t *testing.T) {
	h := NewBacktestHandler(&stubRunner{}, defaults(), logger.Nop())

	rec := postJSON(t, h.Run, map[string]interface{}{
		"start_date": "2024-06-28",
		"end_date":   "2024-01-02",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBacktestHandler_RunReportsEngineFailure(t *testing.T) {
	h := NewBacktestHandler(&stubRunner{err: assert.AnError}, defaults(), logger.Nop())

	rec := postJSON(t, h.Run, map[string]interface{}{
		"start_date": "2024-01-02",
		"end_date":   "2024-06-28",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBacktestHandler_Sweep(t *testing.T) {
	runner := &stubRunner{report: &contracts.BacktestReport{RunID: "run-1"}}
	h := NewBacktestHandler(runner, defaults(), logger.Nop())

	rec := postJSON(t, h.Sweep, map[string]interface{}{
		"start_date":      "2024-01-02",
		"end_date":        "2024-06-28",
		"sweep_hold_days": []int{15, 30},
		"sweep_top_n":     []int{1, 3},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int                    `json:"count"`
		Results []backtest.SweepResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Count)
}

func TestBacktestHandler_SweepRequiresGrid(t *testing.T) {
	h := NewBacktestHandler(&stubRunner{}, defaults(), logger.Nop())

	rec := postJSON(t, h.Sweep, map[string]interface{}{
		"start_date": "2024-01-02",
		"end_date":   "2024-06-28",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
