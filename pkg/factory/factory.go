// Package factory creates and tracks collection instances. It owns the
// platform-wide fee defaults: changing them affects future instances only,
// since each engine snapshots its fee configuration at creation.
package factory

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropforge/dropforge/pkg/access"
	"github.com/dropforge/dropforge/pkg/allowlist"
	"github.com/dropforge/dropforge/pkg/config"
	"github.com/dropforge/dropforge/pkg/engine"
	"github.com/dropforge/dropforge/pkg/events"
	"github.com/dropforge/dropforge/pkg/fault"
	"github.com/dropforge/dropforge/pkg/finance"
	"github.com/dropforge/dropforge/pkg/phase"
	"github.com/dropforge/dropforge/pkg/registry"
)

// Scope is the capability scope for factory-level platform operations.
const Scope = "factory"

// setupTTL bounds the owner capability the factory mints for itself while
// registering a new instance's presale phases.
const setupTTL = time.Minute

// Deps holds the shared collaborators every created instance is wired with.
type Deps struct {
	Authority *access.Authority
	Bank      engine.Bank
	Sink      events.Sink
	// NewRegistry supplies a fresh ownership registry per instance.
	// Defaults to the in-memory implementation.
	NewRegistry func() registry.Registry
	Clock       func() time.Time
	Logger      *slog.Logger
}

// Factory instantiates engines from creation parameters or profiles.
type Factory struct {
	mu        sync.RWMutex
	defaults  finance.FeeConfig
	instances map[string]*engine.Engine
	byCreator map[string][]string
	trees     map[string]map[int]*allowlist.Tree

	auth        *access.Authority
	bank        engine.Bank
	sink        events.Sink
	newRegistry func() registry.Registry
	clock       func() time.Time
	logger      *slog.Logger
}

// New constructs a factory with the given platform fee defaults. The
// defaults' ProceedsRecipient is ignored: each instance gets its creator's
// address at creation.
func New(defaults finance.FeeConfig, deps Deps) (*Factory, error) {
	if err := validateDefaults(defaults); err != nil {
		return nil, err
	}
	if deps.Authority == nil || deps.Bank == nil {
		return nil, fault.Config(fault.CodeZeroAddress, "authority and bank are required")
	}
	newReg := deps.NewRegistry
	if newReg == nil {
		newReg = func() registry.Registry { return registry.NewMemory() }
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	sink := deps.Sink
	if sink == nil {
		sink = events.Discard{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Factory{
		defaults:    defaults,
		instances:   make(map[string]*engine.Engine),
		byCreator:   make(map[string][]string),
		trees:       make(map[string]map[int]*allowlist.Tree),
		auth:        deps.Authority,
		bank:        deps.Bank,
		sink:        sink,
		newRegistry: newReg,
		clock:       clock,
		logger:      logger.With("component", "factory"),
	}, nil
}

// CreateParams describes a new collection. Window offsets are relative to
// creation time.
type CreateParams struct {
	Name      string         `json:"name"`
	Symbol    string         `json:"symbol"`
	Creator   string         `json:"creator"`
	MaxSupply int64          `json:"max_supply"`
	Public    phase.Config   `json:"public"`
	Presales  []PresaleSpec  `json:"presales,omitempty"`
	Royalty   RoyaltySetting `json:"royalty,omitempty"`
}

// PresaleSpec declares one allow-list gated phase by its member addresses.
// The factory builds the Merkle tree and retains it so proofs can be served
// to wallets at mint time.
type PresaleSpec struct {
	Config    phase.Config `json:"config"`
	Addresses []string     `json:"addresses"`
}

// RoyaltySetting carries the reported royalty terms.
type RoyaltySetting struct {
	Receiver string `json:"receiver,omitempty"`
	Bps      int64  `json:"bps,omitempty"`
}

// FromProfile converts a declarative collection profile into creation
// parameters.
func FromProfile(p *config.CollectionProfile) CreateParams {
	params := CreateParams{
		Name:      p.Name,
		Symbol:    p.Symbol,
		Creator:   p.Creator,
		MaxSupply: p.MaxSupply,
		Public: phase.Config{
			Name:          "public",
			StartOffset:   p.Public.StartOffset.Std(),
			EndOffset:     p.Public.EndOffset.Std(),
			PricePerUnit:  p.Public.PriceMinor,
			MaxPerAddress: p.Public.MaxPerAddress,
		},
		Royalty: RoyaltySetting{Receiver: p.Royalty.Receiver, Bps: p.Royalty.Bps},
	}
	for _, ps := range p.Presales {
		params.Presales = append(params.Presales, PresaleSpec{
			Config: phase.Config{
				Name:          ps.Name,
				StartOffset:   ps.Sale.StartOffset.Std(),
				EndOffset:     ps.Sale.EndOffset.Std(),
				PricePerUnit:  ps.Sale.PriceMinor,
				MaxPerAddress: ps.Sale.MaxPerAddress,
			},
			Addresses: ps.Addresses,
		})
	}
	return params
}

// Create instantiates a new engine. The instance snapshots the factory's
// current fee defaults; later default changes never touch it.
func (f *Factory) Create(params CreateParams) (*engine.Engine, error) {
	if params.Creator == "" {
		return nil, fault.Config(fault.CodeZeroAddress, "creator address must not be empty")
	}

	f.mu.Lock()
	fees := f.defaults
	f.mu.Unlock()
	fees.ProceedsRecipient = params.Creator

	now := f.clock()
	id := uuid.NewString()

	eng, err := engine.New(engine.Config{
		InstanceID: id,
		Name:       params.Name,
		Symbol:     params.Symbol,
		MaxSupply:  params.MaxSupply,
		Public: phase.Phase{
			ID:            phase.PublicID,
			Name:          params.Public.Name,
			Start:         now.Add(params.Public.StartOffset),
			End:           now.Add(params.Public.EndOffset),
			PricePerUnit:  params.Public.PricePerUnit,
			MaxPerAddress: params.Public.MaxPerAddress,
		},
		Fees:            fees,
		Owner:           params.Creator,
		RoyaltyReceiver: params.Royalty.Receiver,
		RoyaltyBps:      params.Royalty.Bps,
		Registry:        f.newRegistry(),
		Bank:            f.bank,
		Authority:       f.auth,
		Sink:            f.sink,
		Clock:           f.clock,
	})
	if err != nil {
		return nil, err
	}

	trees, err := f.registerPresales(eng, params)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.instances[id] = eng
	f.byCreator[params.Creator] = append(f.byCreator[params.Creator], id)
	f.trees[id] = trees
	f.mu.Unlock()

	f.logger.Info("instance created",
		"instance_id", id,
		"creator", params.Creator,
		"max_supply", params.MaxSupply,
		"presales", len(params.Presales),
	)
	return eng, nil
}

// registerPresales builds the allow-list trees and adds the phases using a
// short-lived owner capability minted on the creator's behalf.
func (f *Factory) registerPresales(eng *engine.Engine, params CreateParams) (map[int]*allowlist.Tree, error) {
	trees := make(map[int]*allowlist.Tree, len(params.Presales))
	if len(params.Presales) == 0 {
		return trees, nil
	}

	capability, err := f.auth.Mint(params.Creator, access.RoleOwner, eng.ID(), setupTTL)
	if err != nil {
		return nil, fmt.Errorf("mint setup capability: %w", err)
	}

	for _, ps := range params.Presales {
		tree, err := allowlist.BuildTree(ps.Addresses)
		if err != nil {
			return nil, fmt.Errorf("presale %q: %w", ps.Config.Name, err)
		}
		cfg := ps.Config
		cfg.AllowListRoot = tree.Root()
		phaseID, err := eng.AddPhase(capability, cfg)
		if err != nil {
			return nil, err
		}
		trees[phaseID] = tree
	}
	return trees, nil
}

// Get returns the instance with the given id.
func (f *Factory) Get(id string) (*engine.Engine, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	eng, ok := f.instances[id]
	if !ok {
		return nil, fault.Config(fault.CodeUnknown, "instance %q not found", id)
	}
	return eng, nil
}

// InstancesBy returns the ids of instances created by the given address,
// oldest first.
func (f *Factory) InstancesBy(creator string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := f.byCreator[creator]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// List returns all live instance ids.
func (f *Factory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.instances))
	for id := range f.instances {
		out = append(out, id)
	}
	return out
}

// DefaultFees returns the fee configuration applied to new instances.
func (f *Factory) DefaultFees() finance.FeeConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.defaults
}

// SetDefaultFees updates the platform fee defaults. Requires a
// platform-admin capability scoped to the factory. Existing instances keep
// their snapshotted fees.
func (f *Factory) SetDefaultFees(capability string, fees finance.FeeConfig) error {
	if _, err := f.auth.Check(capability, access.RolePlatform, Scope); err != nil {
		return err
	}
	if err := validateDefaults(fees); err != nil {
		return err
	}

	f.mu.Lock()
	f.defaults = fees
	f.mu.Unlock()

	f.sink.Emit(events.New(Scope, events.TypeFeeConfigUpdated, f.clock(), map[string]any{
		"mint_fee_per_unit": fees.MintFeePerUnit,
		"sales_fee_bps":     fees.SalesFeeBps,
		"fee_recipient":     fees.FeeRecipient,
	}))
	return nil
}

// AddPresale registers a new allow-list phase on an existing instance and
// retains its tree for proof serving. The capability must carry the
// instance owner role; the engine enforces it.
func (f *Factory) AddPresale(capability, instanceID string, spec PresaleSpec) (int, error) {
	eng, err := f.Get(instanceID)
	if err != nil {
		return 0, err
	}
	tree, err := allowlist.BuildTree(spec.Addresses)
	if err != nil {
		return 0, err
	}
	cfg := spec.Config
	cfg.AllowListRoot = tree.Root()

	phaseID, err := eng.AddPhase(capability, cfg)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	if f.trees[instanceID] == nil {
		f.trees[instanceID] = make(map[int]*allowlist.Tree)
	}
	f.trees[instanceID][phaseID] = tree
	f.mu.Unlock()
	return phaseID, nil
}

// EditPresale replaces a not-yet-live phase's parameters. With addresses
// present the allow list is rebuilt; without, the existing tree is kept.
func (f *Factory) EditPresale(capability, instanceID string, phaseID int, spec PresaleSpec) error {
	eng, err := f.Get(instanceID)
	if err != nil {
		return err
	}

	cfg := spec.Config
	var tree *allowlist.Tree
	if len(spec.Addresses) > 0 {
		tree, err = allowlist.BuildTree(spec.Addresses)
		if err != nil {
			return err
		}
		cfg.AllowListRoot = tree.Root()
	} else {
		p, err := eng.PhaseInfo(phaseID)
		if err != nil {
			return err
		}
		cfg.AllowListRoot = p.AllowListRoot
	}

	if err := eng.EditPhase(capability, phaseID, cfg); err != nil {
		return err
	}
	if tree != nil {
		f.mu.Lock()
		f.trees[instanceID][phaseID] = tree
		f.mu.Unlock()
	}
	return nil
}

// RemovePresale tombstones a phase and drops its tree.
func (f *Factory) RemovePresale(capability, instanceID string, phaseID int) error {
	eng, err := f.Get(instanceID)
	if err != nil {
		return err
	}
	if err := eng.RemovePhase(capability, phaseID); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.trees[instanceID], phaseID)
	f.mu.Unlock()
	return nil
}

// validateDefaults checks everything except ProceedsRecipient, which is
// filled in per instance.
func validateDefaults(fees finance.FeeConfig) error {
	fees.ProceedsRecipient = "unassigned"
	return fees.Validate()
}

// Proof returns the Merkle proof entitling addr to mint in the given
// presale phase.
func (f *Factory) Proof(instanceID string, phaseID int, addr string) ([]string, error) {
	f.mu.RLock()
	tree, ok := f.trees[instanceID][phaseID]
	f.mu.RUnlock()
	if !ok {
		return nil, fault.Phase(fault.CodeUnknown, "no allow list for instance %q phase %d", instanceID, phaseID)
	}
	return tree.ProofFor(addr)
}
