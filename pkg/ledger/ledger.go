package ledger

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors for ledger operations.
var (
	// ErrInsufficientFunds indicates a native transfer exceeds the payer balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientTokens indicates a token transfer or burn exceeds the
	// account balance.
	ErrInsufficientTokens = errors.New("insufficient tokens")

	// ErrUnknownTokenAccount indicates the token account does not exist.
	ErrUnknownTokenAccount = errors.New("unknown token account")

	// ErrUnknownAsset indicates the asset does not exist.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrUnknownPool indicates the mint pool does not exist.
	ErrUnknownPool = errors.New("unknown pool")

	// ErrAssetFrozen indicates the asset is under custodial hold.
	ErrAssetFrozen = errors.New("asset is frozen")

	// ErrAssetNotFrozen indicates a thaw was requested for an asset that is
	// not under custodial hold.
	ErrAssetNotFrozen = errors.New("asset is not frozen")

	// ErrNotDelegate indicates the caller is not the approved custodial
	// delegate for the asset.
	ErrNotDelegate = errors.New("not the approved delegate")

	// ErrPoolEmpty indicates the pool has no items left to redeem.
	ErrPoolEmpty = errors.New("pool is empty")
)

// TokenAccount holds a fungible token balance for one (owner, mint) pair.
type TokenAccount struct {
	// Address is the derived address of the account.
	Address Address

	// Owner is the account that controls the balance.
	Owner Address

	// Mint identifies the token.
	Mint Address

	// Amount is the current balance in base units.
	Amount uint64
}

// Asset is a unique, non-fungible item. Custody guards place assets under a
// custodial hold by approving a delegate and freezing the asset.
type Asset struct {
	// Mint is the unique identity of the asset.
	Mint Address

	// Owner is the current holder.
	Owner Address

	// Collection is the collection the asset belongs to.
	Collection Address

	// CollectionVerified reports whether the collection membership has been
	// attested by the collection authority.
	CollectionVerified bool

	// Frozen reports whether the asset is under custodial hold.
	Frozen bool

	// Delegate is the approved custodial delegate, if any.
	Delegate *Address
}

// Pool is a finite supply of mintable items. The redeemed count feeds the
// redeemed-cap guard and the escrow thaw predicate.
type Pool struct {
	// ID is the pool account address.
	ID Address

	// Authority is the administrator of the pool.
	Authority Address

	// ItemsAvailable is the total supply.
	ItemsAvailable uint64

	// ItemsRedeemed is the number of items minted so far.
	ItemsRedeemed uint64
}

// FullyRedeemed reports whether every item in the pool has been minted.
func (p *Pool) FullyRedeemed() bool {
	return p.ItemsRedeemed >= p.ItemsAvailable
}

// Ledger is an in-memory host account model. It implements the transfer,
// burn, and custody primitives that guards consume, with the host's
// single-writer guarantee approximated by a package-level lock.
type Ledger struct {
	mu       sync.RWMutex
	balances map[Address]uint64
	tokens   map[Address]*TokenAccount
	assets   map[Address]*Asset
	pools    map[Address]*Pool
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[Address]uint64),
		tokens:   make(map[Address]*TokenAccount),
		assets:   make(map[Address]*Asset),
		pools:    make(map[Address]*Pool),
	}
}

// Balance returns the native balance of an account. Unknown accounts have a
// zero balance.
func (l *Ledger) Balance(addr Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr]
}

// Credit adds native units to an account.
func (l *Ledger) Credit(addr Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] += amount
}

// Transfer moves native units between accounts. It fails with
// ErrInsufficientFunds without touching either balance if the payer cannot
// cover the full amount.
func (l *Ledger) Transfer(from, to Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return fmt.Errorf("transfer %d from %s: %w", amount, from.Short(), ErrInsufficientFunds)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// TransferUpTo moves up to amount native units between accounts, capped at
// the payer's balance, and returns the amount actually moved. Used by the
// bot-tax fallback, which charges whatever the requester can afford.
func (l *Ledger) TransferUpTo(from, to Address, amount uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	charged := amount
	if balance := l.balances[from]; balance < charged {
		charged = balance
	}
	l.balances[from] -= charged
	l.balances[to] += charged
	return charged
}

// TokenAccountAddress returns the derived address of the token account for
// (owner, mint).
func TokenAccountAddress(owner, mint Address) Address {
	return Derive(owner, []byte("token_account"), mint[:])
}

// CreateTokenAccount creates (or tops up) the token account for (owner, mint)
// and returns its address.
func (l *Ledger) CreateTokenAccount(owner, mint Address, amount uint64) Address {
	l.mu.Lock()
	defer l.mu.Unlock()

	addr := TokenAccountAddress(owner, mint)
	account, ok := l.tokens[addr]
	if !ok {
		account = &TokenAccount{Address: addr, Owner: owner, Mint: mint}
		l.tokens[addr] = account
	}
	account.Amount += amount
	return addr
}

// TokenAccount looks up a token account by address.
func (l *Ledger) TokenAccount(addr Address) (*TokenAccount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account, ok := l.tokens[addr]
	if !ok {
		return nil, fmt.Errorf("token account %s: %w", addr.Short(), ErrUnknownTokenAccount)
	}
	cp := *account
	return &cp, nil
}

// TokenTransfer moves tokens from one token account to another. The
// destination account is created on demand with the same mint.
func (l *Ledger) TokenTransfer(source, destination Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.tokens[source]
	if !ok {
		return fmt.Errorf("token account %s: %w", source.Short(), ErrUnknownTokenAccount)
	}
	if src.Amount < amount {
		return fmt.Errorf("transfer %d tokens from %s: %w", amount, source.Short(), ErrInsufficientTokens)
	}

	dst, ok := l.tokens[destination]
	if !ok {
		dst = &TokenAccount{Address: destination, Mint: src.Mint}
		l.tokens[destination] = dst
	}
	src.Amount -= amount
	dst.Amount += amount
	return nil
}

// TokenBurn destroys tokens from a token account.
func (l *Ledger) TokenBurn(source Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.tokens[source]
	if !ok {
		return fmt.Errorf("token account %s: %w", source.Short(), ErrUnknownTokenAccount)
	}
	if src.Amount < amount {
		return fmt.Errorf("burn %d tokens from %s: %w", amount, source.Short(), ErrInsufficientTokens)
	}
	src.Amount -= amount
	return nil
}

// MintAsset records a new asset owned by owner as part of collection.
func (l *Ledger) MintAsset(mint, owner, collection Address, verified bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.assets[mint] = &Asset{
		Mint:               mint,
		Owner:              owner,
		Collection:         collection,
		CollectionVerified: verified,
	}
}

// Asset looks up an asset by mint address.
func (l *Ledger) Asset(mint Address) (*Asset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	asset, ok := l.assets[mint]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", mint.Short(), ErrUnknownAsset)
	}
	cp := *asset
	return &cp, nil
}

// BurnAsset destroys an asset. Frozen assets cannot be burned.
func (l *Ledger) BurnAsset(mint Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	asset, ok := l.assets[mint]
	if !ok {
		return fmt.Errorf("asset %s: %w", mint.Short(), ErrUnknownAsset)
	}
	if asset.Frozen {
		return fmt.Errorf("asset %s: %w", mint.Short(), ErrAssetFrozen)
	}
	delete(l.assets, mint)
	return nil
}

// TransferAsset moves an asset to a new owner. Frozen assets cannot move.
func (l *Ledger) TransferAsset(mint, newOwner Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	asset, ok := l.assets[mint]
	if !ok {
		return fmt.Errorf("asset %s: %w", mint.Short(), ErrUnknownAsset)
	}
	if asset.Frozen {
		return fmt.Errorf("asset %s: %w", mint.Short(), ErrAssetFrozen)
	}
	asset.Owner = newOwner
	asset.Delegate = nil
	return nil
}

// ApproveDelegate approves a custodial delegate on an asset.
func (l *Ledger) ApproveDelegate(mint, delegate Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	asset, ok := l.assets[mint]
	if !ok {
		return fmt.Errorf("asset %s: %w", mint.Short(), ErrUnknownAsset)
	}
	asset.Delegate = &delegate
	return nil
}

// RevokeDelegate removes the custodial delegate from an asset. Frozen assets
// keep their delegate until thawed.
func (l *Ledger) RevokeDelegate(mint Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	asset, ok := l.assets[mint]
	if !ok {
		return fmt.Errorf("asset %s: %w", mint.Short(), ErrUnknownAsset)
	}
	if asset.Frozen {
		return fmt.Errorf("asset %s: %w", mint.Short(), ErrAssetFrozen)
	}
	asset.Delegate = nil
	return nil
}

// FreezeAsset places an asset under custodial hold. Only the approved
// delegate may freeze.
func (l *Ledger) FreezeAsset(mint, delegate Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	asset, ok := l.assets[mint]
	if !ok {
		return fmt.Errorf("asset %s: %w", mint.Short(), ErrUnknownAsset)
	}
	if asset.Delegate == nil || !asset.Delegate.Equal(delegate) {
		return fmt.Errorf("freeze asset %s: %w", mint.Short(), ErrNotDelegate)
	}
	asset.Frozen = true
	return nil
}

// ThawAsset releases the custodial hold on an asset. Only the approved
// delegate may thaw.
func (l *Ledger) ThawAsset(mint, delegate Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	asset, ok := l.assets[mint]
	if !ok {
		return fmt.Errorf("asset %s: %w", mint.Short(), ErrUnknownAsset)
	}
	if !asset.Frozen {
		return fmt.Errorf("thaw asset %s: %w", mint.Short(), ErrAssetNotFrozen)
	}
	if asset.Delegate == nil || !asset.Delegate.Equal(delegate) {
		return fmt.Errorf("thaw asset %s: %w", mint.Short(), ErrNotDelegate)
	}
	asset.Frozen = false
	return nil
}

// CreatePool registers a mint pool.
func (l *Ledger) CreatePool(id, authority Address, itemsAvailable uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pools[id] = &Pool{
		ID:             id,
		Authority:      authority,
		ItemsAvailable: itemsAvailable,
	}
}

// Pool looks up a mint pool by address. The returned value is a snapshot.
func (l *Ledger) Pool(id Address) (*Pool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pool, ok := l.pools[id]
	if !ok {
		return nil, fmt.Errorf("pool %s: %w", id.Short(), ErrUnknownPool)
	}
	cp := *pool
	return &cp, nil
}

// Redeem consumes one item from the pool and returns the updated redeemed
// count. This is the privileged action the guard pipeline protects.
func (l *Ledger) Redeem(id Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pool, ok := l.pools[id]
	if !ok {
		return 0, fmt.Errorf("pool %s: %w", id.Short(), ErrUnknownPool)
	}
	if pool.ItemsRedeemed >= pool.ItemsAvailable {
		return pool.ItemsRedeemed, fmt.Errorf("pool %s: %w", id.Short(), ErrPoolEmpty)
	}
	pool.ItemsRedeemed++
	return pool.ItemsRedeemed, nil
}
