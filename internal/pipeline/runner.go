// Package pipeline drives one run of the brief: collect headlines, build the
// prompt, request the report and mail it. Each run walks a fixed state machine
// exactly once.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Adda-Baaj/market-brief/internal/config"
	"github.com/Adda-Baaj/market-brief/internal/domain"
	"github.com/Adda-Baaj/market-brief/internal/logger"
	"github.com/Adda-Baaj/market-brief/internal/prompt"
	"github.com/Adda-Baaj/market-brief/pkg/providers"
	"github.com/Adda-Baaj/market-brief/pkg/publishers"
)

// Collector gathers headlines from every source.
type Collector interface {
	Collect(ctx context.Context, sources []providers.Provider) domain.HeadlineSet
}

// Completer turns a prompt into a report.
type Completer interface {
	Complete(ctx context.Context, prompt string) domain.Report
}

// Mailer delivers the report and reports whether it was accepted.
type Mailer interface {
	Send(ctx context.Context, subject, body string) bool
}

// Publisher receives the run event once the run ends.
type Publisher interface {
	Publish(ctx context.Context, evt publishers.Event) error
}

// Components are the collaborators of a run. Publisher may be nil.
type Components struct {
	Sources   []providers.Provider
	Collector Collector
	Completer Completer
	Mailer    Mailer
	Publisher Publisher
}

// Factory builds the components. It is only called once credentials are known
// to be present, so no client is constructed for a run that fails fast.
type Factory func(ctx context.Context, cfg *config.Config) (*Components, error)

// Outcome is the result of a run.
type Outcome struct {
	RunID      string
	State      State
	Path       []State
	Headlines  domain.HeadlineSet
	Prompt     string
	Report     domain.Report
	Delivered  bool
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Runner executes runs against a fixed configuration.
type Runner struct {
	cfg   *config.Config
	build Factory
	log   logger.Logger
	now   domain.Clock
	newID func() string
}

// Option customises a Runner.
type Option func(*Runner)

// WithClock overrides the time source used for the prompt date and timestamps.
func WithClock(clock domain.Clock) Option {
	return func(r *Runner) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// New returns a Runner.
func New(cfg *config.Config, build Factory, log logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:   cfg,
		build: build,
		log:   logger.Ensure(log),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run holds the per-run working state.
type run struct {
	out   Outcome
	comps *Components
}

type step func(ctx context.Context, rn *run) State

// Run executes the pipeline once. It never returns an error; the outcome
// carries the terminal state and, for FAIL-FAST, the reason.
func (r *Runner) Run(ctx context.Context) Outcome {
	rn := &run{out: Outcome{RunID: r.newID(), StartedAt: r.now()}}
	m := newMachine()

	steps := map[State]step{
		StateInit:     r.initialize,
		StateCollect:  r.collect,
		StatePrompt:   r.buildPrompt,
		StateComplete: r.complete,
		StateMail:     r.mail,
	}

	for !IsTerminal(m.current) {
		from := m.current
		next := steps[from](ctx, rn)
		if err := m.advance(next); err != nil {
			rn.out.Err = err
			r.log.ErrorObj("pipeline aborted", "pipeline_error", map[string]any{
				"run_id": rn.out.RunID,
				"error":  err.Error(),
			})
			break
		}
		r.log.DebugObj("pipeline state changed", "pipeline_transition", map[string]any{
			"run_id": rn.out.RunID,
			"from":   string(from),
			"to":     string(next),
		})
	}

	rn.out.State = m.current
	rn.out.Path = m.Path()
	rn.out.FinishedAt = r.now()

	if rn.out.State != StateFailFast {
		r.publish(ctx, rn)
	}
	if rn.comps != nil {
		closePublisher(rn.comps.Publisher, r.log)
	}

	r.log.InfoObj("run finished", "run_finished", map[string]any{
		"run_id":    rn.out.RunID,
		"state":     string(rn.out.State),
		"headlines": rn.out.Headlines.Total(),
		"delivered": rn.out.Delivered,
		"duration":  rn.out.FinishedAt.Sub(rn.out.StartedAt).String(),
	})
	return rn.out
}

func (r *Runner) initialize(ctx context.Context, rn *run) State {
	if r.cfg == nil {
		rn.out.Err = errors.New("configuration is missing")
	} else {
		rn.out.Err = r.cfg.Validate()
	}
	if rn.out.Err != nil {
		r.log.ErrorObj("configuration error, nothing was run", "config_error", map[string]any{
			"error": rn.out.Err.Error(),
		})
		return StateFailFast
	}

	if r.build == nil {
		rn.out.Err = errors.New("no component factory configured")
	} else {
		rn.comps, rn.out.Err = r.build(ctx, r.cfg)
		if rn.out.Err == nil && (rn.comps == nil || rn.comps.Collector == nil || rn.comps.Completer == nil || rn.comps.Mailer == nil) {
			rn.out.Err = errors.New("component factory returned incomplete components")
		}
	}
	if rn.out.Err != nil {
		rn.out.Err = fmt.Errorf("build components: %w", rn.out.Err)
		r.log.ErrorObj("configuration error, nothing was run", "config_error", map[string]any{
			"error": rn.out.Err.Error(),
		})
		return StateFailFast
	}

	r.log.InfoObj("run started", "run_started", map[string]any{
		"run_id":   rn.out.RunID,
		"strategy": r.cfg.Strategy,
		"sources":  len(rn.comps.Sources),
	})
	return StateCollect
}

func (r *Runner) collect(ctx context.Context, rn *run) State {
	rn.out.Headlines = rn.comps.Collector.Collect(ctx, rn.comps.Sources)

	if rn.out.Headlines.Empty() {
		r.log.WarnObj("no news collected from any source, skipping report", "no_news", map[string]any{
			"run_id":  rn.out.RunID,
			"sources": rn.out.Headlines.Len(),
		})
		return StateSkipMail
	}
	return StatePrompt
}

func (r *Runner) buildPrompt(_ context.Context, rn *run) State {
	rn.out.Prompt = prompt.Build(rn.out.Headlines, r.now())
	r.log.DebugObj("prompt built", "prompt_built", map[string]any{
		"run_id":    rn.out.RunID,
		"length":    len(rn.out.Prompt),
		"headlines": rn.out.Headlines.Total(),
	})
	return StateComplete
}

func (r *Runner) complete(ctx context.Context, rn *run) State {
	rn.out.Report = rn.comps.Completer.Complete(ctx, rn.out.Prompt)
	if !rn.out.Report.Deliverable() {
		reason := "report generation failed"
		if rn.out.Report.Reason != nil {
			reason = rn.out.Report.Reason.Error()
		}
		r.log.ErrorObj("report generation failed, mail skipped", "report_failed", map[string]any{
			"run_id": rn.out.RunID,
			"error":  reason,
		})
		return StateSkipMail
	}
	return StateMail
}

func (r *Runner) mail(ctx context.Context, rn *run) State {
	rn.out.Delivered = rn.comps.Mailer.Send(ctx, r.cfg.Profile().Subject, rn.out.Report.Text)
	return StateDone
}

func (r *Runner) publish(ctx context.Context, rn *run) {
	if rn.comps == nil || rn.comps.Publisher == nil {
		return
	}
	if err := rn.comps.Publisher.Publish(ctx, r.event(rn.out)); err != nil {
		r.log.WarnObj("run event not fully published", "run_event_error", map[string]any{
			"run_id": rn.out.RunID,
			"error":  err.Error(),
		})
	}
}

func (r *Runner) event(out Outcome) publishers.Event {
	evt := publishers.Event{
		RunID:      out.RunID,
		Strategy:   r.cfg.Strategy,
		State:      string(out.State),
		Sources:    domain.Summarize(out.Headlines),
		Headlines:  out.Headlines.Total(),
		Delivered:  out.Delivered,
		StartedAt:  out.StartedAt,
		FinishedAt: out.FinishedAt,
	}
	if out.Report.Status != "" {
		evt.ReportStatus = string(out.Report.Status)
	}
	if out.Report.Reason != nil {
		evt.ReportError = out.Report.Reason.Error()
	}
	return evt
}

func closePublisher(p Publisher, log logger.Logger) {
	c, ok := p.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.WarnObj("closing publishers failed", "publisher_close_error", map[string]any{
			"error": err.Error(),
		})
	}
}
