package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"mintworks/mintgate/pkg/audit"
	"mintworks/mintgate/pkg/config"
	"mintworks/mintgate/pkg/escrow"
	"mintworks/mintgate/pkg/guard"
	"mintworks/mintgate/pkg/ledger"
	"mintworks/mintgate/pkg/pipeline"
	"mintworks/mintgate/pkg/route"
	"mintworks/mintgate/pkg/state"
	"mintworks/mintgate/pkg/telemetry/metrics"
)

// ErrNotAuthorized indicates a configuration update signed by an account
// other than the policy authority.
var ErrNotAuthorized = errors.New("not authorized")

// Options configures a Gatekeeper.
type Options struct {
	// Config is the gatekeeper configuration. Defaults apply when nil.
	Config *config.Config

	// Logger receives structured output. Discarded when nil.
	Logger *slog.Logger

	// Ledger is the account model the guards act on. A fresh ledger is
	// created when nil.
	Ledger *ledger.Ledger

	// Clock supplies the current time. Defaults to the system clock.
	Clock ledger.Clock

	// Collector receives telemetry. Optional.
	Collector *metrics.Collector

	// ProgramID namespaces derived tracker and escrow addresses.
	ProgramID ledger.Address

	// GuardID is the guard policy account.
	GuardID ledger.Address

	// Authority may rewrite the configuration and run privileged route
	// instructions.
	Authority ledger.Address

	// PoolID is the mint pool being gated.
	PoolID ledger.Address
}

// Gatekeeper evaluates mint and route requests for one pool.
type Gatekeeper struct {
	cfg       *config.Config
	logger    *slog.Logger
	records   state.Backend
	escrows   *escrow.Store
	pipeline  *pipeline.Pipeline
	dispatch  *route.Dispatcher
	collector *metrics.Collector
	auditLog  *audit.Log

	env             guard.Env
	defaultPrograms []ledger.Address

	mu  sync.RWMutex
	raw []byte

	watcher   *fsnotify.Watcher
	cron      *cron.Cron
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New builds a Gatekeeper and loads the guard data buffer from disk.
func New(opts Options) (*Gatekeeper, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := opts.Ledger
	if l == nil {
		l = ledger.New()
	}
	clock := opts.Clock
	if clock == nil {
		clock = ledger.SystemClock{}
	}

	records, err := newBackend(&cfg.Storage)
	if err != nil {
		return nil, err
	}

	defaultPrograms, err := cfg.Programs.Addresses()
	if err != nil {
		records.Close()
		return nil, err
	}

	var observer pipeline.Observer
	if opts.Collector != nil {
		observer = opts.Collector
	}

	g := &Gatekeeper{
		cfg:       cfg,
		logger:    logger,
		records:   records,
		escrows:   escrow.NewStore(records, clock),
		pipeline:  pipeline.New(logger, observer),
		dispatch:  route.New(logger),
		collector: opts.Collector,
		env: guard.Env{
			Ledger:    l,
			Records:   records,
			Clock:     clock,
			ProgramID: opts.ProgramID,
			GuardID:   opts.GuardID,
			Authority: opts.Authority,
			PoolID:    opts.PoolID,
		},
		defaultPrograms: defaultPrograms,
		stopCh:          make(chan struct{}),
	}
	g.env.Escrows = g.escrows

	if cfg.Audit.Enabled {
		g.auditLog, err = audit.Open(cfg.Audit.Path)
		if err != nil {
			records.Close()
			return nil, err
		}
	}

	if err := g.LoadGuardData(); err != nil {
		g.Close()
		return nil, err
	}

	if cfg.GuardData.Watch {
		if err := g.startWatcher(); err != nil {
			g.Close()
			return nil, err
		}
	}
	if cfg.Sweep.Enabled {
		if err := g.startSweep(); err != nil {
			g.Close()
			return nil, err
		}
	}
	return g, nil
}

func newBackend(cfg *config.StorageConfig) (state.Backend, error) {
	switch cfg.Backend {
	case "sqlite":
		return state.NewSQLiteBackendWithConfig(state.SQLiteBackendConfig{
			DBPath:      cfg.Path,
			BusyTimeout: cfg.BusyTimeout,
		})
	default:
		return state.NewMemoryBackend(), nil
	}
}

// Ledger returns the account model the gatekeeper acts on.
func (g *Gatekeeper) Ledger() *ledger.Ledger {
	return g.env.Ledger
}

// Escrows returns the freeze escrow store.
func (g *Gatekeeper) Escrows() *escrow.Store {
	return g.escrows
}

// LoadGuardData reads and validates the guard data file. On failure the
// previously loaded buffer stays active.
func (g *Gatekeeper) LoadGuardData() error {
	raw, err := os.ReadFile(g.cfg.GuardData.Path)
	if err != nil {
		return fmt.Errorf("read guard data %s: %w", g.cfg.GuardData.Path, err)
	}
	if _, err := guard.Unmarshal(raw); err != nil {
		return fmt.Errorf("guard data %s: %w", g.cfg.GuardData.Path, err)
	}

	g.mu.Lock()
	g.raw = raw
	g.mu.Unlock()

	features, _ := guard.Features(raw)
	g.logger.Info("guard data loaded",
		"path", g.cfg.GuardData.Path,
		"bytes", len(raw),
		"features", fmt.Sprintf("%#x", features))
	return nil
}

// UpdateGuardData rewrites the whole configuration buffer. Only the policy
// authority may update; the buffer is validated, persisted to the
// configured path, and swapped in atomically.
func (g *Gatekeeper) UpdateGuardData(authority ledger.Address, data *guard.Data) error {
	if !authority.Equal(g.env.Authority) {
		return fmt.Errorf("update guard data: %w", ErrNotAuthorized)
	}
	raw, err := data.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(g.cfg.GuardData.Path, raw, 0o644); err != nil {
		return fmt.Errorf("write guard data %s: %w", g.cfg.GuardData.Path, err)
	}

	g.mu.Lock()
	g.raw = raw
	g.mu.Unlock()

	g.logger.Info("guard data updated", "bytes", len(raw), "groups", len(data.Groups))
	return nil
}

// snapshot returns the active guard data buffer.
func (g *Gatekeeper) snapshot() []byte {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.raw
}

// MintRequest is one attempt to mint from the pool.
type MintRequest struct {
	// Payer funds the mint.
	Payer ledger.Address

	// Minter receives the asset. Defaults to the payer.
	Minter ledger.Address

	// AssetMint is the address the minted asset will live at.
	AssetMint ledger.Address

	// Label selects a guard group. Required when the configuration has
	// groups.
	Label string

	// Args is the guard argument payload.
	Args []byte

	// Resources are the auxiliary accounts, in guard enumeration order.
	Resources []guard.Resource

	// TxPrograms are the program ids of the surrounding transaction.
	TxPrograms []ledger.Address
}

// Mint evaluates one mint attempt. A nil error with a taxed outcome means
// the mint was denied and the penalty collected.
func (g *Gatekeeper) Mint(ctx context.Context, req MintRequest) (*pipeline.Result, error) {
	set, err := guard.Resolve(g.snapshot(), req.Label)
	if err != nil {
		return nil, err
	}

	minter := req.Minter
	if minter.IsZero() {
		minter = req.Payer
	}
	mc := &guard.MintContext{
		Env:             g.env,
		Payer:           req.Payer,
		Minter:          minter,
		AssetMint:       req.AssetMint,
		Args:            req.Args,
		Resources:       req.Resources,
		TxPrograms:      req.TxPrograms,
		DefaultPrograms: g.defaultPrograms,
	}

	result, err := g.pipeline.Execute(ctx, mc, set, func(context.Context) (uint64, error) {
		redeemed, err := g.env.Ledger.Redeem(g.env.PoolID)
		if err != nil {
			return 0, err
		}
		g.env.Ledger.MintAsset(req.AssetMint, minter, ledger.ZeroAddress, false)
		return redeemed, nil
	})

	g.auditMint(ctx, &req, result, err)
	return result, err
}

// RouteRequest is one administrative side-channel request.
type RouteRequest struct {
	// Payer signs the request.
	Payer ledger.Address

	// Label selects a guard group, like MintRequest.Label.
	Label string

	// Guard is the kind whose instruction handler should run.
	Guard guard.Kind

	// Data is the guard-specific instruction payload.
	Data []byte

	// Resources are the auxiliary accounts the instruction needs.
	Resources []guard.Resource
}

// Route dispatches an administrative instruction to the owning guard.
func (g *Gatekeeper) Route(ctx context.Context, req RouteRequest) error {
	set, err := guard.Resolve(g.snapshot(), req.Label)
	if err != nil {
		return err
	}

	rc := &guard.RouteContext{
		Env:       g.env,
		Payer:     req.Payer,
		Resources: req.Resources,
	}
	err = g.dispatch.Dispatch(ctx, rc, set, route.Args{Guard: req.Guard, Data: req.Data})

	status := "ok"
	if err != nil {
		status = "error"
	}
	if g.collector != nil {
		g.collector.RouteDispatched(req.Guard.String(), status)
	}
	g.auditRoute(ctx, &req, err)
	return err
}

func (g *Gatekeeper) auditMint(ctx context.Context, req *MintRequest, result *pipeline.Result, err error) {
	if g.auditLog == nil {
		return
	}

	entry := &audit.Entry{
		Event: "mint",
		Payer: req.Payer.String(),
		Pool:  g.env.PoolID.String(),
		Label: req.Label,
	}
	switch {
	case err != nil:
		entry.Outcome = "denied"
		entry.FailureCode = guard.CodeOf(err)
	case result.Outcome == pipeline.OutcomeTaxed:
		entry.RunID = result.RunID
		entry.Outcome = string(result.Outcome)
		entry.FailedGuard = result.FailedKind.String()
		entry.FailureCode = guard.CodeOf(result.Failure)
		entry.TaxCollected = result.TaxCollected
	default:
		entry.RunID = result.RunID
		entry.Outcome = string(result.Outcome)
		entry.Redeemed = result.Redeemed
	}
	if aerr := g.auditLog.Record(ctx, entry); aerr != nil {
		g.logger.Warn("audit record failed", "error", aerr)
	}
}

func (g *Gatekeeper) auditRoute(ctx context.Context, req *RouteRequest, err error) {
	if g.auditLog == nil {
		return
	}

	entry := &audit.Entry{
		Event:       "route",
		Payer:       req.Payer.String(),
		Pool:        g.env.PoolID.String(),
		Label:       req.Label,
		FailedGuard: req.Guard.String(),
		Outcome:     "ok",
	}
	if err != nil {
		entry.Outcome = "error"
		entry.FailureCode = guard.CodeOf(err)
	}
	if aerr := g.auditLog.Record(ctx, entry); aerr != nil {
		g.logger.Warn("audit record failed", "error", aerr)
	}
}

// Close stops the watcher and sweep job and closes the backends.
func (g *Gatekeeper) Close() error {
	var err error
	g.closeOnce.Do(func() {
		close(g.stopCh)
		if g.watcher != nil {
			g.watcher.Close()
		}
		if g.cron != nil {
			<-g.cron.Stop().Done()
		}
		g.wg.Wait()

		if g.auditLog != nil {
			if cerr := g.auditLog.Close(); cerr != nil {
				err = cerr
			}
		}
		if cerr := g.records.Close(); cerr != nil {
			err = cerr
		}
	})
	return err
}
