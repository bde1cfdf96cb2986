// Package operations runs a cleaning job as a fixed sequence of steps.
//
// Core Components:
//
// Step: a single unit of work (load, clean, analyze, plot, save). A step is
// either required or optional. A failing required step ends the run; a failing
// optional step is recorded as a warning and the run continues. A step that
// has nothing to do returns ErrSkipStep.
//
// StepState: the status (pending, active, completed, failed, skipped) and
// timing of one step.
//
// RunState: the data passed between steps of one run: the table, the
// imputation statistics, the descriptive summary and the files written.
//
// Pipeline: executes the steps in order, each inside its own trace span, and
// records step counts and durations on the run metrics.
//
// Usage:
//
//	p := operations.NewCleaningPipeline(cfg, operations.BuildOptions{Telemetry: tel})
//	state := operations.NewRunState(runID, "data.xlsx")
//	if err := p.Run(ctx, state); err != nil {
//		// a required step failed
//	}
package operations
