package operations_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sheetclean/internal/errors"
	"sheetclean/internal/infrastructure"
	"sheetclean/internal/operations"
	"sheetclean/internal/shared/testutil"
)

type fakeStep struct {
	operations.BaseStep
	err   error
	calls *[]string
}

func newFakeStep(id string, required bool, err error, calls *[]string) *fakeStep {
	return &fakeStep{
		BaseStep: operations.NewBaseStep(id, "Step "+id, required),
		err:      err,
		calls:    calls,
	}
}

func (s *fakeStep) Execute(ctx context.Context, state *operations.RunState) error {
	*s.calls = append(*s.calls, s.ID())
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func statuses(state *operations.RunState) map[string]operations.StepStatus {
	out := make(map[string]operations.StepStatus)
	for _, s := range state.Steps() {
		out[s.ID] = s.GetStatus()
	}
	return out
}

func TestStepStateTransitions(t *testing.T) {
	tests := []struct {
		name       string
		transition func(*operations.StepState)
		wantStatus operations.StepStatus
		wantEnd    bool
	}{
		{"Start", func(s *operations.StepState) { s.Start() }, operations.StepStatusActive, false},
		{"Complete", func(s *operations.StepState) { s.Start(); s.Complete() }, operations.StepStatusCompleted, true},
		{"Fail", func(s *operations.StepState) { s.Start(); s.Fail(errors.New("boom")) }, operations.StepStatusFailed, true},
		{"Skip", func(s *operations.StepState) { s.Skip("disabled") }, operations.StepStatusSkipped, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := operations.NewStepState("id", "Name")
			assert.Equal(t, operations.StepStatusPending, s.GetStatus())
			assert.Zero(t, s.Duration())

			tt.transition(s)

			assert.Equal(t, tt.wantStatus, s.GetStatus())
			assert.NotNil(t, s.StartTime)
			assert.Equal(t, tt.wantEnd, s.EndTime != nil)
			assert.GreaterOrEqual(t, s.Duration(), time.Duration(0))
		})
	}
}

func TestPipeline_Run(t *testing.T) {
	boom := apperrors.NewStorageError("disk full", nil)

	tests := []struct {
		name         string
		steps        func(calls *[]string) []operations.Step
		wantErr      bool
		wantCalls    []string
		wantStatus   map[string]operations.StepStatus
		wantWarnings int
	}{
		{
			name: "all steps complete",
			steps: func(calls *[]string) []operations.Step {
				return []operations.Step{
					newFakeStep("a", true, nil, calls),
					newFakeStep("b", false, nil, calls),
				}
			},
			wantCalls: []string{"a", "b"},
			wantStatus: map[string]operations.StepStatus{
				"a": operations.StepStatusCompleted,
				"b": operations.StepStatusCompleted,
			},
		},
		{
			name: "required failure stops the run",
			steps: func(calls *[]string) []operations.Step {
				return []operations.Step{
					newFakeStep("load", true, boom, calls),
					newFakeStep("save", false, nil, calls),
				}
			},
			wantErr:   true,
			wantCalls: []string{"load"},
			wantStatus: map[string]operations.StepStatus{
				"load": operations.StepStatusFailed,
				"save": operations.StepStatusPending,
			},
		},
		{
			name: "optional failure continues",
			steps: func(calls *[]string) []operations.Step {
				return []operations.Step{
					newFakeStep("plot", false, boom, calls),
					newFakeStep("save", false, nil, calls),
				}
			},
			wantCalls: []string{"plot", "save"},
			wantStatus: map[string]operations.StepStatus{
				"plot": operations.StepStatusFailed,
				"save": operations.StepStatusCompleted,
			},
			wantWarnings: 1,
		},
		{
			name: "skip is not a failure",
			steps: func(calls *[]string) []operations.Step {
				return []operations.Step{
					newFakeStep("plot", true, operations.ErrSkipStep, calls),
					newFakeStep("save", true, nil, calls),
				}
			},
			wantCalls: []string{"plot", "save"},
			wantStatus: map[string]operations.StepStatus{
				"plot": operations.StepStatusSkipped,
				"save": operations.StepStatusCompleted,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			logger, logs := testutil.NewTestLogger(t)
			p := operations.NewPipeline(nil, logger, tt.steps(&calls)...)
			state := operations.NewRunState("run-1", "in.xlsx")

			err := p.Run(context.Background(), state)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, boom)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantStatus, statuses(state))
			assert.Len(t, state.Warnings, tt.wantWarnings)
			assert.Equal(t, tt.wantWarnings > 0, logs.ContainsMessage("Optional step failed"))
			assert.Equal(t, !tt.wantErr, logs.ContainsMessage("Pipeline completed"))
		})
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	var calls []string
	p := operations.NewPipeline(nil, discardLogger(), newFakeStep("a", true, nil, &calls))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, operations.NewRunState("run-1", "in.xlsx"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}

func TestPipeline_RecordsStepMetrics(t *testing.T) {
	metricsFile := filepath.Join(t.TempDir(), "run.prom")
	tel, err := infrastructure.InitializeTelemetry(infrastructure.TelemetryOptions{MetricsFile: metricsFile}, discardLogger())
	require.NoError(t, err)

	var calls []string
	p := operations.NewPipeline(tel, discardLogger(),
		newFakeStep("load", true, nil, &calls),
		newFakeStep("plot", false, apperrors.NewRenderError("no display", nil), &calls),
	)
	require.NoError(t, p.Run(context.Background(), operations.NewRunState("run-1", "in.xlsx")))
	require.NoError(t, tel.Shutdown(context.Background()))

	content, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	out := string(content)
	assert.Contains(t, out, "pipeline_steps_total")
	assert.Contains(t, out, `step="load"`)
	assert.Contains(t, out, `status="failed"`)
	assert.Contains(t, out, `error_type="RENDER"`)
}
