// Package vehicle keeps the per-vehicle reputation records.
package vehicle

import (
	"fmt"

	"github.com/rsuchain/rsuchain/internal/store"
	"github.com/rsuchain/rsuchain/types"
)

const (
	// ValidReward is added to the reputation of a vehicle whose report is
	// adjudicated VALID.
	ValidReward = 5
	// FalsePenalty is subtracted from the reputation of a vehicle whose report
	// is adjudicated FALSE.
	FalsePenalty = 10
)

// Ledger reads and writes vehicle records in a store. Reputation is not
// clamped in either direction.
type Ledger struct {
	kv store.KVStore
}

// NewLedger returns a Ledger over kv.
func NewLedger(kv store.KVStore) *Ledger {
	return &Ledger{kv: kv}
}

// Register creates a vehicle with the initial reputation.
func (l *Ledger) Register(vehicleID string) (types.Vehicle, error) {
	ok, err := l.Exists(vehicleID)
	if err != nil {
		return types.Vehicle{}, err
	}
	if ok {
		return types.Vehicle{}, fmt.Errorf("%w: %s", types.ErrDuplicateVehicle, vehicleID)
	}

	v := types.NewVehicle(vehicleID)
	if err := l.save(v); err != nil {
		return types.Vehicle{}, err
	}
	return v, nil
}

// Exists reports whether vehicleID is registered.
func (l *Ledger) Exists(vehicleID string) (bool, error) {
	return l.kv.Has(store.VehicleKey(vehicleID))
}

// Get loads a vehicle.
func (l *Ledger) Get(vehicleID string) (types.Vehicle, error) {
	var v types.Vehicle
	ok, err := store.GetJSON(l.kv, store.VehicleKey(vehicleID), &v)
	if err != nil {
		return types.Vehicle{}, err
	}
	if !ok {
		return types.Vehicle{}, fmt.Errorf("%w: %s", types.ErrVehicleNotFound, vehicleID)
	}
	return v, nil
}

// RecordReportSubmitted increments the report counter of a vehicle.
func (l *Ledger) RecordReportSubmitted(vehicleID string) (types.Vehicle, error) {
	return l.update(vehicleID, func(v *types.Vehicle) {
		v.TotalReports++
	})
}

// ApplyAdjudication rewards the vehicle for a VALID report or penalizes it
// for a FALSE one.
func (l *Ledger) ApplyAdjudication(vehicleID string, valid bool) (types.Vehicle, error) {
	return l.update(vehicleID, func(v *types.Vehicle) {
		if valid {
			v.Reputation += ValidReward
			return
		}
		v.Reputation -= FalsePenalty
		v.FalseReports++
	})
}

func (l *Ledger) update(vehicleID string, fn func(*types.Vehicle)) (types.Vehicle, error) {
	v, err := l.Get(vehicleID)
	if err != nil {
		return types.Vehicle{}, err
	}
	fn(&v)
	if err := l.save(v); err != nil {
		return types.Vehicle{}, err
	}
	return v, nil
}

func (l *Ledger) save(v types.Vehicle) error {
	return store.SetJSON(l.kv, store.VehicleKey(v.VehicleID), v)
}
