package types

import (
	"encoding/json"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// GenesisState is the optional application state supplied in the genesis
// file. It lets a network start with its authorities and vehicles in place.
type GenesisState struct {
	Authorities *GenesisAuthorities `json:"authorities,omitempty"`
	Vehicles    []string            `json:"vehicles,omitempty"`
}

// GenesisAuthorities initializes the RSU registry and registers the listed
// RSUs on behalf of Initializer.
type GenesisAuthorities struct {
	Initializer Caller           `json:"initializer"`
	RSUs        []RegisterRSUMsg `json:"rsus"`
}

// GenesisStateFromJSON decodes the genesis app state. Empty input yields an
// empty state.
func GenesisStateFromJSON(bz []byte) (GenesisState, error) {
	var gs GenesisState
	if len(bz) == 0 {
		return gs, nil
	}
	if err := json.Unmarshal(bz, &gs); err != nil {
		return gs, fmt.Errorf("decode genesis app state: %w", err)
	}
	return gs, gs.ValidateBasic()
}

// ValidateBasic checks entries individually and rejects duplicate ids.
func (gs GenesisState) ValidateBasic() error {
	if gs.Authorities != nil {
		seen := mapset.NewThreadUnsafeSet[string]()
		for i, rsu := range gs.Authorities.RSUs {
			if err := rsu.ValidateBasic(); err != nil {
				return fmt.Errorf("genesis rsu #%d: %w", i, err)
			}
			if !seen.Add(rsu.RSUID) {
				return fmt.Errorf("genesis: %w: %s", ErrDuplicateRSU, rsu.RSUID)
			}
		}
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	for i, id := range gs.Vehicles {
		if err := (RegisterVehicleMsg{VehicleID: id}).ValidateBasic(); err != nil {
			return fmt.Errorf("genesis vehicle #%d: %w", i, err)
		}
		if !seen.Add(id) {
			return fmt.Errorf("genesis: %w: %s", ErrDuplicateVehicle, id)
		}
	}
	return nil
}
