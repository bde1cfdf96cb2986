package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"sheetclean/internal/dataprocessing"
	apperrors "sheetclean/internal/errors"
	"sheetclean/internal/infrastructure"
	"sheetclean/pkg/contracts/domain"
)

// ErrSkipStep is returned by a step that has nothing to do
var ErrSkipStep = errors.New("step skipped")

// Step represents a single step of a cleaning run
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// Required reports whether a failure of this step ends the run
	Required() bool

	// Execute runs the step against the shared run state
	Execute(ctx context.Context, state *RunState) error
}

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a step
type StepState struct {
	mu        sync.RWMutex
	ID        string
	Name      string
	Status    StepStatus
	StartTime *time.Time
	EndTime   *time.Time
	Message   string
	Error     error
}

// NewStepState creates a new step state with default values
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:     id,
		Name:   name,
		Status: StepStatusPending,
	}
}

// Start marks the step as active
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the step as completed
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the step as failed with an error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
}

// Skip marks the step as skipped
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if s.StartTime == nil {
		s.StartTime = &now
	}
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns how long the step ran, or has been running
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime == nil {
		return time.Since(*s.StartTime)
	}
	return s.EndTime.Sub(*s.StartTime)
}

// BaseStep provides the identity half of the Step interface
type BaseStep struct {
	id       string
	name     string
	required bool
}

// NewBaseStep creates a new base step
func NewBaseStep(id, name string, required bool) BaseStep {
	return BaseStep{id: id, name: name, required: required}
}

// ID returns the step ID
func (b BaseStep) ID() string { return b.id }

// Name returns the step name
func (b BaseStep) Name() string { return b.name }

// Required reports whether the step is required
func (b BaseStep) Required() bool { return b.required }

// RunState carries data between steps of a single run
type RunState struct {
	ID        string
	InputPath string
	StartTime time.Time

	Table      *domain.Table
	Imputation dataprocessing.ImputationStatistics
	Summary    *dataprocessing.Summary
	Panels     int

	// Outputs lists the files written by the run, in order
	Outputs []string

	// Warnings holds the errors of optional steps that failed
	Warnings []error

	steps map[string]*StepState
	order []string
}

// NewRunState creates the state for a run over inputPath
func NewRunState(id, inputPath string) *RunState {
	return &RunState{
		ID:        id,
		InputPath: inputPath,
		StartTime: time.Now(),
		steps:     make(map[string]*StepState),
	}
}

// Step returns the state of the step with the given ID, or nil
func (r *RunState) Step(id string) *StepState {
	return r.steps[id]
}

// Steps returns step states in execution order
func (r *RunState) Steps() []*StepState {
	out := make([]*StepState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.steps[id])
	}
	return out
}

func (r *RunState) addStep(s *StepState) {
	if _, ok := r.steps[s.ID]; !ok {
		r.order = append(r.order, s.ID)
	}
	r.steps[s.ID] = s
}

// Pipeline runs steps sequentially
type Pipeline struct {
	steps     []Step
	telemetry *infrastructure.Telemetry
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewPipeline creates a pipeline. telemetry may be nil.
func NewPipeline(telemetry *infrastructure.Telemetry, logger *slog.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	tracer := noop.NewTracerProvider().Tracer(infrastructure.ServiceName)
	if telemetry != nil && telemetry.Tracer != nil {
		tracer = telemetry.Tracer
	}
	return &Pipeline{
		steps:     steps,
		telemetry: telemetry,
		tracer:    tracer,
		logger:    logger,
	}
}

// Steps returns the configured steps
func (p *Pipeline) Steps() []Step {
	return p.steps
}

func (p *Pipeline) metrics() *infrastructure.RunMetrics {
	if p.telemetry == nil {
		return nil
	}
	return p.telemetry.Metrics
}

// Run executes every step in order. A failing required step stops the run
// and its error is returned; a failing optional step is recorded in
// state.Warnings and the run continues.
func (p *Pipeline) Run(ctx context.Context, state *RunState) error {
	for _, step := range p.steps {
		state.addStep(NewStepState(step.ID(), step.Name()))
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.String("run.input", state.InputPath),
		))
	defer span.End()

	logger := p.logger
	logger.InfoContext(ctx, "Pipeline started",
		slog.String("run_id", state.ID),
		slog.String("input", state.InputPath),
		slog.Int("steps", len(p.steps)))

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			state.Step(step.ID()).Fail(err)
			infrastructure.RecordError(ctx, err)
			return fmt.Errorf("pipeline cancelled before step %s: %w", step.ID(), err)
		}

		if err := p.runStep(ctx, step, state); err != nil {
			if step.Required() {
				infrastructure.RecordError(ctx, err)
				infrastructure.RecordPipelineError(ctx, p.metrics(), errorType(err))
				logger.ErrorContext(ctx, "Pipeline stopped",
					slog.String("step", step.ID()),
					slog.String("error", err.Error()))
				return fmt.Errorf("step %s failed: %w", step.ID(), err)
			}

			infrastructure.RecordPipelineError(ctx, p.metrics(), errorType(err))
			state.Warnings = append(state.Warnings, err)
			logger.WarnContext(ctx, "Optional step failed, continuing",
				slog.String("step", step.ID()),
				slog.String("error", err.Error()))
		}
	}

	logger.InfoContext(ctx, "Pipeline completed",
		slog.String("run_id", state.ID),
		slog.Int("warnings", len(state.Warnings)),
		slog.Duration("duration", time.Since(state.StartTime)))
	return nil
}

// runStep executes one step inside its own span. ErrSkipStep is not an error.
func (p *Pipeline) runStep(ctx context.Context, step Step, state *RunState) error {
	stepState := state.Step(step.ID())

	ctx, span := p.tracer.Start(ctx, "pipeline.step."+step.ID(),
		trace.WithAttributes(
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
			attribute.Bool("step.required", step.Required()),
		))
	defer span.End()

	logger := p.logger
	logger.DebugContext(ctx, "Step started", slog.String("step", step.ID()))

	stepState.Start()
	err := step.Execute(ctx, state)

	switch {
	case errors.Is(err, ErrSkipStep):
		stepState.Skip(err.Error())
		span.SetAttributes(attribute.String("step.status", string(StepStatusSkipped)))
		logger.InfoContext(ctx, "Step skipped", slog.String("step", step.ID()))
		err = nil
	case err != nil:
		stepState.Fail(err)
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "Step failed",
			slog.String("step", step.ID()),
			slog.String("error", err.Error()),
			slog.Duration("duration", stepState.Duration()))
	default:
		stepState.Complete()
		logger.InfoContext(ctx, "Step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", stepState.Duration()))
	}

	infrastructure.RecordStepMetrics(ctx, p.metrics(), step.ID(), string(stepState.GetStatus()), stepState.Duration())
	return err
}

func errorType(err error) string {
	if t := apperrors.TypeOf(err); t != "" {
		return string(t)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "CANCELLED"
	}
	return "UNKNOWN"
}
