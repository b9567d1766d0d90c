package route

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"mintworks/mintgate/pkg/guard"
)

// Args is one administrative route request.
type Args struct {
	// Guard is the kind whose instruction handler should run.
	Guard guard.Kind

	// Data is the guard-specific instruction payload.
	Data []byte
}

// Dispatcher routes administrative instructions to guard handlers.
type Dispatcher struct {
	logger *slog.Logger
}

// New creates a dispatcher. A nil logger discards output.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{logger: logger}
}

// Dispatch runs the instruction handler of args.Guard against the resolved
// set. Fails with guard.ErrGuardNotEnabled when the kind is disabled and
// guard.ErrInstructionNotFound when the guard has no side-channel.
func (d *Dispatcher) Dispatch(ctx context.Context, rc *guard.RouteContext, set *guard.Set, args Args) error {
	g := set.Guard(args.Guard)
	if g == nil {
		return fmt.Errorf("%w: %s", guard.ErrGuardNotEnabled, args.Guard)
	}
	router, ok := g.(guard.Router)
	if !ok {
		return fmt.Errorf("%w: %s", guard.ErrInstructionNotFound, args.Guard)
	}

	logger := d.logger.With("guard", args.Guard.String(), "payer", rc.Payer.Short(), "pool", rc.PoolID.Short())
	if err := router.Instruction(ctx, rc, args.Data); err != nil {
		logger.Warn("route instruction failed", "code", guard.CodeOf(err), "error", err)
		return err
	}
	logger.Info("route instruction applied")
	return nil
}
