package phase

import (
	"sort"
	"time"

	"github.com/dropforge/dropforge/pkg/fault"
)

// Registry holds the public phase and the presale phases of one instance.
// Removal tombstones the slot: ids stay stable for the instance's lifetime
// and the sequence keeps advancing past removed ids. Callers may therefore
// cache phase ids safely.
//
// Like the supply ledger, a Registry is owned by its engine instance and
// relies on the instance lock for serialization.
type Registry struct {
	public   Phase
	presales map[int]Phase
	nextID   int
	clock    func() time.Time
}

// NewRegistry creates a registry around the given public phase definition.
func NewRegistry(public Phase, clock func() time.Time) *Registry {
	if clock == nil {
		clock = time.Now
	}
	public.ID = PublicID
	public.AllowListRoot = ""
	return &Registry{
		public:   public,
		presales: make(map[int]Phase),
		nextID:   1,
		clock:    clock,
	}
}

// Public returns the public phase.
func (r *Registry) Public() Phase { return r.public }

// Add registers a presale phase and returns its id.
func (r *Registry) Add(cfg Config) (int, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	if len(r.presales) >= MaxPresalePhases {
		return 0, fault.Phase(fault.CodeCapacityExceeded, "at most %d presale phases may be alive", MaxPresalePhases)
	}

	now := r.clock()
	p := Phase{
		ID:            r.nextID,
		Name:          cfg.Name,
		Start:         now.Add(cfg.StartOffset),
		End:           now.Add(cfg.EndOffset),
		PricePerUnit:  cfg.PricePerUnit,
		MaxPerAddress: cfg.MaxPerAddress,
		AllowListRoot: cfg.AllowListRoot,
	}
	r.presales[p.ID] = p
	r.nextID++
	return p.ID, nil
}

// Edit replaces a presale phase's parameters. Phases that have gone live
// are frozen; remove-and-replace is the only path once start has passed.
func (r *Registry) Edit(id int, cfg Config) error {
	p, ok := r.presales[id]
	if !ok {
		return fault.Phase(fault.CodeUnknown, "phase %d not found", id)
	}
	if !r.clock().Before(p.Start) {
		return fault.Phase(fault.CodePhaseLive, "phase %d already started", id)
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	now := r.clock()
	r.presales[id] = Phase{
		ID:            id,
		Name:          cfg.Name,
		Start:         now.Add(cfg.StartOffset),
		End:           now.Add(cfg.EndOffset),
		PricePerUnit:  cfg.PricePerUnit,
		MaxPerAddress: cfg.MaxPerAddress,
		AllowListRoot: cfg.AllowListRoot,
	}
	return nil
}

// Remove tombstones a presale phase that has not started yet. The id is not
// reused.
func (r *Registry) Remove(id int) error {
	p, ok := r.presales[id]
	if !ok {
		return fault.Phase(fault.CodeUnknown, "phase %d not found", id)
	}
	if !r.clock().Before(p.Start) {
		return fault.Phase(fault.CodePhaseLive, "phase %d already started", id)
	}
	delete(r.presales, id)
	return nil
}

// Get returns the phase with the given id, public or presale.
func (r *Registry) Get(id int) (Phase, error) {
	if id == PublicID {
		return r.public, nil
	}
	p, ok := r.presales[id]
	if !ok {
		return Phase{}, fault.Phase(fault.CodeUnknown, "phase %d not found", id)
	}
	return p, nil
}

// List returns the alive presale phases ordered by id.
func (r *Registry) List() []Phase {
	out := make([]Phase, 0, len(r.presales))
	for _, p := range r.presales {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
