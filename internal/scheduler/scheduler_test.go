package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insiderlab/quant/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	err      error
	runs     int
}

func (j *fakeJob) Name() string              { return j.name }
func (j *fakeJob) Schedule() string          { return j.schedule }
func (j *fakeJob) Run(context.Context) error { j.runs++; return j.err }

func TestScheduler_AddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 18 * * MON-FRI"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "@daily"}))

	assert.Equal(t, []string{"a", "b"}, s.Jobs())
}

func TestScheduler_AddJobRejectsDuplicates(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@daily"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))
}

func TestScheduler_AddJobRejectsBadSchedule(t *testing.T) {
	s := New(logger.Nop())
	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "not a cron expr"}))
}

func TestScheduler_RunJobUnknown(t *testing.T) {
	s := New(logger.Nop())
	assert.Error(t, s.RunJob("missing"))
}

func TestScheduler_RunJobRecordsHistory(t *testing.T) {
	s := New(logger.Nop())
	job := &fakeJob{name: "a", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	// Run synchronously to avoid sleeping on the goroutine.
	s.runJob(job)

	history, err := s.History("a")
	require.NoError(t, err)

	last, ok := history.Last()
	require.True(t, ok)
	assert.True(t, last.Success)
	assert.Equal(t, 1, job.runs)
	assert.InDelta(t, 1.0, history.SuccessRate(), 1e-9)
}

func TestScheduler_RunJobAndWait(t *testing.T) {
	s := New(logger.Nop())
	job := &fakeJob{name: "a", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJobAndWait("a"))
	assert.Equal(t, 1, job.runs)
	assert.Error(t, s.RunJobAndWait("missing"))
}

func TestJobHistory_Bounds(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+10; i++ {
		h.Add(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
}

func TestJobHistory_SuccessRate(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.SuccessRate())

	h.Add(JobResult{Success: true})
	h.Add(JobResult{Success: false})
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
}
