// Package validator drives the configuration step across every legacy
// preset in scope and aggregates the outcomes into a ValidationReport.
//
// Per-preset attempts are independent and side-effect-isolated, so the
// runner executes them on a bounded worker pool. The report is the sole
// pass/fail signal for a run: individual failures are recorded, never
// escalated, and every preset in scope is always attempted.
package validator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/harrison/presetbridge/internal/invoker"
	"github.com/harrison/presetbridge/internal/mapping"
	"github.com/harrison/presetbridge/internal/preset"
)

// Logger receives progress notifications during a run. It can be nil.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Configurer attempts the configure step for one preset's OptionSet.
// The production implementation is invoker.Invoker.
type Configurer interface {
	Configure(ctx context.Context, presetName string, opts mapping.OptionSet) invoker.Result
}

// Runner validates a preset directory against the target build
// description.
type Runner struct {
	Store    *preset.Store
	Defaults *mapping.DefaultTable
	Invoker  Configurer

	// Workers bounds concurrent configure attempts. Values below 1 run
	// sequentially.
	Workers int

	Logger Logger
}

// job is one preset ready for invocation.
type job struct {
	name     string
	options  mapping.OptionSet
	warnings []string
}

// Run attempts every preset in scope (all presets, or the named subset)
// and returns the finalized report. Malformed presets are recorded and
// skipped; they never abort the batch. On cancellation no report is
// returned: a partial run is never visible as a final report.
func (r *Runner) Run(ctx context.Context, subset []string) (*Report, error) {
	names, err := r.Store.Select(subset)
	if err != nil {
		return nil, err
	}

	report := NewReport()

	// Parse up front so mapper and invoker only ever see well-formed
	// presets. Parse failures are data on the report, not errors.
	jobs := make([]job, 0, len(names))
	for _, name := range names {
		p, err := r.Store.Load(name)
		if err != nil {
			var malformed *preset.MalformedPresetError
			if errors.As(err, &malformed) {
				r.warnf("preset %s is malformed: %v", name, err)
				report.Append(Entry{
					Preset:   name,
					Category: MalformedPreset.String(),
					Cause:    malformed.Reason,
					category: MalformedPreset,
				})
				continue
			}
			return nil, err
		}

		var warnings []string
		for _, flag := range p.UnrecognizedFlags {
			warnings = append(warnings, "unrecognized feature flag "+flag)
		}
		jobs = append(jobs, job{
			name:     name,
			options:  mapping.Map(p, r.Defaults),
			warnings: warnings,
		})
	}

	if err := r.invokeAll(ctx, jobs, report); err != nil {
		return nil, err
	}

	report.Finalize()
	return report, nil
}

// invokeAll runs the configure attempts on a bounded worker pool. A
// cancelled context stops issuing new invocations; in-flight ones finish
// or hit their per-invocation timeout.
func (r *Runner) invokeAll(ctx context.Context, jobs []job, report *Report) error {
	if len(jobs) == 0 {
		return ctx.Err()
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var launchErr error

	for _, j := range jobs {
		select {
		case <-ctx.Done():
			launchErr = ctx.Err()
		case semaphore <- struct{}{}:
			// Acquiring a slot can race with cancellation; re-check so a
			// cancelled run never launches another invocation.
			if err := ctx.Err(); err != nil {
				<-semaphore
				launchErr = err
			}
		}
		if launchErr != nil {
			break
		}

		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			defer func() { <-semaphore }()

			r.debugf("configuring %s", j.name)
			res := r.Invoker.Configure(ctx, j.name, j.options)
			category, cause := Classify(res)

			entry := Entry{
				Preset:   j.name,
				Category: category.String(),
				Cause:    cause,
				Warnings: j.warnings,
				Elapsed:  res.Elapsed,
				category: category,
			}
			if category == UnknownFailure {
				// Full diagnostics stay on the entry for manual triage.
				entry.Output = res.Output
			}
			report.Append(entry)

			switch category {
			case Pass:
				r.infof("%s: pass (%v)", j.name, res.Elapsed.Round(roundTo))
			default:
				r.warnf("%s: %s (%s)", j.name, category, cause)
			}
		}(j)
	}

	wg.Wait()
	if launchErr == nil {
		// Cancellation landing after the last launch must still abort
		// the run; survivors of a cancelled run are not a final report.
		launchErr = ctx.Err()
	}
	return launchErr
}

// roundTo keeps elapsed times in log lines readable.
const roundTo = 10 * time.Millisecond

func (r *Runner) debugf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Debugf(format, args...)
	}
}

func (r *Runner) infof(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Infof(format, args...)
	}
}

func (r *Runner) warnf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Warnf(format, args...)
	}
}
