// Package authority manages the RSU registry: the set of road-side units
// allowed to adjudicate reports.
//
// The registry is a single record. Every mutation loads it, changes it and
// writes it back within the caller's store branch, so membership changes are
// atomic with whatever else that branch does.
package authority

import (
	"fmt"
	"time"

	"github.com/rsuchain/rsuchain/internal/store"
	"github.com/rsuchain/rsuchain/types"
)

// EmptyMessage accompanies the listing of a registry that does not exist yet.
const EmptyMessage = "No RSUs registered"

// Registry reads and writes the RSU registry in a store.
type Registry struct {
	kv store.KVStore
}

// NewRegistry returns a Registry over kv.
func NewRegistry(kv store.KVStore) *Registry {
	return &Registry{kv: kv}
}

// Initialize creates the empty registry. The initializer is recorded for
// audit only and gains no privileges.
func (r *Registry) Initialize(caller types.Caller, now time.Time) (*types.Registry, error) {
	ok, err := r.kv.Has(store.RegistryKey())
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, types.ErrAlreadyInitialized
	}

	reg := types.NewRegistry(caller, now)
	if err := r.save(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Load returns the registry, or ErrNotInitialized.
func (r *Registry) Load() (*types.Registry, error) {
	reg, ok, err := r.load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.ErrNotInitialized
	}
	return reg, nil
}

// Register adds an ACTIVE RSU. The RSU authenticates later calls with its
// rsuId as identity.
func (r *Registry) Register(msg types.RegisterRSUMsg, callerID string, now time.Time) (*types.RSU, error) {
	reg, err := r.Load()
	if err != nil {
		return nil, err
	}
	if _, ok := reg.RSUs[msg.RSUID]; ok {
		return nil, fmt.Errorf("%w: %s", types.ErrDuplicateRSU, msg.RSUID)
	}

	rsu := &types.RSU{
		RSUID:        msg.RSUID,
		MSPID:        msg.MSPID,
		Identity:     msg.RSUID,
		Location:     msg.Location,
		Latitude:     msg.Latitude,
		Longitude:    msg.Longitude,
		RegisteredAt: now,
		RegisteredBy: callerID,
		Status:       types.RSUActive,
	}
	reg.RSUs[msg.RSUID] = rsu
	reg.Count++
	reg.LastUpdated = now

	if err := r.save(reg); err != nil {
		return nil, err
	}
	return rsu, nil
}

// Deactivate marks an RSU INACTIVE. Deactivating an RSU that is already
// inactive succeeds and refreshes deactivatedAt.
func (r *Registry) Deactivate(rsuID string, now time.Time) (*types.RSU, error) {
	reg, err := r.Load()
	if err != nil {
		return nil, err
	}
	rsu, ok := reg.RSUs[rsuID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrRSUNotFound, rsuID)
	}

	rsu.Status = types.RSUInactive
	at := now
	rsu.DeactivatedAt = &at
	reg.LastUpdated = now

	if err := r.save(reg); err != nil {
		return nil, err
	}
	return rsu, nil
}

// ResolveCaller returns the ACTIVE RSU whose identity is callerID, or nil.
// A missing registry resolves nobody.
func (r *Registry) ResolveCaller(callerID string) (*types.RSU, error) {
	reg, ok, err := r.load()
	if err != nil || !ok {
		return nil, err
	}
	return resolve(reg, callerID), nil
}

// IsActiveAuthority reports whether callerID resolves to an ACTIVE RSU.
func (r *Registry) IsActiveAuthority(callerID string) (bool, error) {
	rsu, err := r.ResolveCaller(callerID)
	return rsu != nil, err
}

// RequireActiveAuthority returns the RSU acting for callerID, or
// ErrUnauthorized.
func (r *Registry) RequireActiveAuthority(callerID string) (*types.RSU, error) {
	rsu, err := r.ResolveCaller(callerID)
	if err != nil {
		return nil, err
	}
	if rsu == nil {
		return nil, fmt.Errorf("%w: %s is not an active RSU", types.ErrUnauthorized, callerID)
	}
	return rsu, nil
}

// RecordValidation counts one adjudication performed by rsuID.
func (r *Registry) RecordValidation(rsuID string, now time.Time) (*types.RSU, error) {
	reg, err := r.Load()
	if err != nil {
		return nil, err
	}
	rsu, ok := reg.RSUs[rsuID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrRSUNotFound, rsuID)
	}

	rsu.ValidationCount++
	at := now
	rsu.LastValidation = &at

	if err := r.save(reg); err != nil {
		return nil, err
	}
	return rsu, nil
}

// Listing is the read view of the registry.
type Listing struct {
	RSUs        map[string]*types.RSU `json:"rsus"`
	Count       int64                 `json:"count"`
	LastUpdated *time.Time            `json:"lastUpdated,omitempty"`
	Message     string                `json:"message,omitempty"`
}

// List returns every registered RSU. An uninitialized registry lists as
// empty rather than failing.
func (r *Registry) List() (Listing, error) {
	reg, ok, err := r.load()
	if err != nil {
		return Listing{}, err
	}
	if !ok {
		return Listing{RSUs: map[string]*types.RSU{}, Message: EmptyMessage}, nil
	}
	return Listing{
		RSUs:        reg.RSUs,
		Count:       reg.Count,
		LastUpdated: &reg.LastUpdated,
	}, nil
}

// resolve scans in id order so that every node picks the same RSU should two
// ever share an identity.
func resolve(reg *types.Registry, callerID string) *types.RSU {
	for _, id := range reg.SortedIDs() {
		rsu := reg.RSUs[id]
		if rsu.Identity == callerID && rsu.IsActive() {
			return rsu
		}
	}
	return nil
}

func (r *Registry) load() (*types.Registry, bool, error) {
	var reg types.Registry
	ok, err := store.GetJSON(r.kv, store.RegistryKey(), &reg)
	if err != nil || !ok {
		return nil, ok, err
	}
	if reg.RSUs == nil {
		reg.RSUs = make(map[string]*types.RSU)
	}
	return &reg, true, nil
}

func (r *Registry) save(reg *types.Registry) error {
	return store.SetJSON(r.kv, store.RegistryKey(), reg)
}
