package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
	"github.com/maltedev/amazon-piracy-detector/internal/pipeline"
)

type runnerFunc func(ctx context.Context) (pipeline.Result, error)

func (f runnerFunc) Run(ctx context.Context) (pipeline.Result, error) { return f(ctx) }

func factoryOf(r Runner) Factory {
	return func(context.Context, Request) (Runner, error) { return r, nil }
}

func TestManager_CompletedRun(t *testing.T) {
	res := pipeline.Result{
		Harvested: 2,
		HighRisk:  1,
		Records: []models.AnalyzedRecord{
			{ProductRecord: models.ProductRecord{ASIN: "B000000001"}, RiskLevel: models.RiskHigh},
			{ProductRecord: models.ProductRecord{ASIN: "B000000002"}, RiskLevel: models.RiskLow},
		},
		Failures: []*pipeline.StageError{{Stage: pipeline.StageReport, Err: errors.New("disk full")}},
	}
	m := NewManager(context.Background(), factoryOf(runnerFunc(func(context.Context) (pipeline.Result, error) {
		return res, nil
	})), nil, nil)

	run, err := m.Start(Request{SearchTerms: []string{"cartucho hp 664"}})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, StatusPending, run.Status)

	m.Wait()

	got, err := m.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 2, got.Harvested)
	assert.Equal(t, 1, got.HighRisk)
	assert.Equal(t, []string{pipeline.StageReport}, got.FailedStages)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
	assert.Len(t, m.Records(), 2)
	assert.Equal(t, Stats{TotalRuns: 1, CompletedRuns: 1, SuccessRate: 100}, m.Stats())
}

func TestManager_OneRunAtATime(t *testing.T) {
	release := make(chan struct{})
	m := NewManager(context.Background(), factoryOf(runnerFunc(func(context.Context) (pipeline.Result, error) {
		<-release
		return pipeline.Result{}, nil
	})), nil, nil)

	_, err := m.Start(Request{})
	require.NoError(t, err)

	_, err = m.Start(Request{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	m.Wait()

	_, err = m.Start(Request{})
	assert.NoError(t, err)
	m.Wait()
	assert.Len(t, m.List(), 2)
}

func TestManager_FactoryFailure(t *testing.T) {
	m := NewManager(context.Background(), func(context.Context, Request) (Runner, error) {
		return nil, errors.New("playwright not installed")
	}, nil, nil)

	run, err := m.Start(Request{})
	require.NoError(t, err)
	m.Wait()

	got, err := m.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "playwright not installed")
	assert.Empty(t, m.Records())
}

func TestManager_PanickingRunFails(t *testing.T) {
	m := NewManager(context.Background(), factoryOf(runnerFunc(func(context.Context) (pipeline.Result, error) {
		panic("browser crashed")
	})), nil, nil)

	run, err := m.Start(Request{})
	require.NoError(t, err)
	m.Wait()

	got, _ := m.Get(run.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "browser crashed")

	_, err = m.Start(Request{})
	assert.NoError(t, err, "a failed run releases the slot")
	m.Wait()
}

func TestManager_RequestReachesFactory(t *testing.T) {
	var got Request
	m := NewManager(context.Background(), func(_ context.Context, req Request) (Runner, error) {
		got = req
		return runnerFunc(func(context.Context) (pipeline.Result, error) { return pipeline.Result{}, nil }), nil
	}, nil, nil)

	_, err := m.Start(Request{SearchTerms: []string{"cartucho hp 667"}, MaxPages: 1})
	require.NoError(t, err)
	m.Wait()

	assert.Equal(t, Request{SearchTerms: []string{"cartucho hp 667"}, MaxPages: 1}, got)
}

func TestManager_GetUnknown(t *testing.T) {
	m := NewManager(context.Background(), nil, nil, nil)

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
