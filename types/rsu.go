package types

import (
	"sort"
	"time"
)

// RSUStatus is the activation state of a road-side unit. The only transition
// is ACTIVE -> INACTIVE.
type RSUStatus string

const (
	RSUActive   RSUStatus = "ACTIVE"
	RSUInactive RSUStatus = "INACTIVE"
)

// RSU is a road-side unit: the authority allowed to adjudicate reports.
type RSU struct {
	RSUID           string     `json:"rsuId"`
	MSPID           string     `json:"mspID"`
	Identity        string     `json:"identity"`
	Location        string     `json:"location"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	RegisteredAt    time.Time  `json:"registeredAt"`
	RegisteredBy    string     `json:"registeredBy"`
	ValidationCount int64      `json:"validationCount"`
	Status          RSUStatus  `json:"status"`
	DeactivatedAt   *time.Time `json:"deactivatedAt,omitempty"`
	LastValidation  *time.Time `json:"lastValidation,omitempty"`
}

// IsActive reports whether the RSU may adjudicate reports.
func (rsu RSU) IsActive() bool {
	return rsu.Status == RSUActive
}

// Registry is the singleton authority record. Every RSU mutation goes through
// it, which makes it the unit of atomicity for authority membership.
type Registry struct {
	RSUs           map[string]*RSU `json:"rsus"`
	Count          int64           `json:"count"`
	LastUpdated    time.Time       `json:"lastUpdated"`
	InitializedBy  string          `json:"initializedBy,omitempty"`
	InitializedMSP string          `json:"initializedMsp,omitempty"`
}

// NewRegistry returns an empty registry stamped with the initializer identity.
func NewRegistry(caller Caller, now time.Time) *Registry {
	return &Registry{
		RSUs:           make(map[string]*RSU),
		LastUpdated:    now,
		InitializedBy:  caller.ID,
		InitializedMSP: caller.MSPID,
	}
}

// SortedIDs returns the registered RSU ids in ascending order. Lookups iterate
// in this order so that every node resolves callers identically.
func (reg *Registry) SortedIDs() []string {
	ids := make([]string, 0, len(reg.RSUs))
	for id := range reg.RSUs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Caller is the identity of whoever submitted a transaction.
type Caller struct {
	ID    string `json:"id"`
	MSPID string `json:"mspId"`
}
