package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mintworks/mintgate/pkg/guard"
)

// Outcome is the reported result of a mint attempt.
type Outcome string

const (
	// OutcomeMinted means every guard passed and the privileged action ran.
	OutcomeMinted Outcome = "minted"

	// OutcomeTaxed means a guard denied the mint and the bot tax fallback
	// collected a penalty instead of failing the attempt.
	OutcomeTaxed Outcome = "taxed"
)

// Result describes one completed mint attempt.
type Result struct {
	// RunID uniquely identifies the attempt in logs and the audit trail.
	RunID string

	// Outcome is OutcomeMinted or OutcomeTaxed.
	Outcome Outcome

	// Redeemed is the pool's redeemed count after the action. Zero for a
	// taxed attempt.
	Redeemed uint64

	// TaxCollected is the penalty actually charged on a taxed attempt,
	// capped at the payer's balance.
	TaxCollected uint64

	// FailedKind is the guard that denied a taxed attempt.
	FailedKind guard.Kind

	// Failure is the guard error behind a taxed attempt. Never returned
	// to the requester.
	Failure error

	// Duration is the wall time of the attempt.
	Duration time.Duration
}

// Observer receives pipeline telemetry. Implemented by the metrics
// collector; a nil Observer disables it.
type Observer interface {
	MintEvaluated(outcome string, duration time.Duration)
	GuardRejected(kind, code string)
	BotTaxCollected(lamports uint64)
}

// Pipeline evaluates guard sets. Safe for concurrent use; all per-attempt
// state lives in the evaluation context.
type Pipeline struct {
	logger   *slog.Logger
	observer Observer
}

// New creates a pipeline. A nil logger discards output.
func New(logger *slog.Logger, observer Observer) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{logger: logger, observer: observer}
}

// Execute runs one mint attempt. action performs the privileged mint and
// returns the pool's new redeemed count; it runs only after every enabled
// guard has validated and applied its pre-action.
//
// A nil error with Outcome == OutcomeTaxed means the mint was denied and
// the penalty collected; callers must not treat it as a minted item.
func (p *Pipeline) Execute(ctx context.Context, mc *guard.MintContext, set *guard.Set, action func(context.Context) (uint64, error)) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID, "payer", mc.Payer.Short(), "pool", mc.PoolID.Short())

	enabled := set.Enabled()
	ec := guard.NewEvaluationContext()

	for _, g := range enabled {
		if err := g.Validate(ctx, mc, ec); err != nil {
			if p.observer != nil {
				p.observer.GuardRejected(g.Kind().String(), guard.CodeOf(err))
			}
			if set.BotTax != nil {
				return p.tax(ctx, mc, set, g.Kind(), err, runID, start, logger)
			}
			logger.Info("mint denied",
				"guard", g.Kind().String(),
				"code", guard.CodeOf(err),
				"error", err)
			p.observe(string(outcomeDenied), start)
			return nil, err
		}
	}

	for _, g := range enabled {
		if err := g.PreAction(ctx, mc, ec); err != nil {
			p.observe(string(outcomeError), start)
			return nil, fmt.Errorf("%s pre-action: %w", g.Kind(), err)
		}
	}

	redeemed, err := action(ctx)
	if err != nil {
		p.observe(string(outcomeError), start)
		return nil, fmt.Errorf("mint action: %w", err)
	}

	for _, g := range enabled {
		if err := g.PostAction(ctx, mc, ec); err != nil {
			p.observe(string(outcomeError), start)
			return nil, fmt.Errorf("%s post-action: %w", g.Kind(), err)
		}
	}

	duration := time.Since(start)
	logger.Info("mint succeeded", "redeemed", redeemed, "guards", len(enabled), "duration", duration)
	p.observe(string(OutcomeMinted), start)
	return &Result{
		RunID:    runID,
		Outcome:  OutcomeMinted,
		Redeemed: redeemed,
		Duration: duration,
	}, nil
}

// Internal outcome labels for telemetry only; they never appear in a Result.
const (
	outcomeDenied Outcome = "denied"
	outcomeError  Outcome = "error"
)

// tax applies the bot tax fallback: collect the penalty and report the
// attempt as handled.
func (p *Pipeline) tax(ctx context.Context, mc *guard.MintContext, set *guard.Set, failed guard.Kind, cause error, runID string, start time.Time, logger *slog.Logger) (*Result, error) {
	collected := set.BotTax.Charge(mc)
	if p.observer != nil {
		p.observer.BotTaxCollected(collected)
	}

	duration := time.Since(start)
	logger.Info("mint taxed",
		"guard", failed.String(),
		"code", guard.CodeOf(cause),
		"collected", collected,
		"duration", duration)
	p.observe(string(OutcomeTaxed), start)
	return &Result{
		RunID:        runID,
		Outcome:      OutcomeTaxed,
		TaxCollected: collected,
		FailedKind:   failed,
		Failure:      cause,
		Duration:     duration,
	}, nil
}

func (p *Pipeline) observe(outcome string, start time.Time) {
	if p.observer != nil {
		p.observer.MintEvaluated(outcome, time.Since(start))
	}
}
