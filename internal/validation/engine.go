// Package validation adjudicates pending reports. It is the only code path
// that moves a report out of PENDING.
package validation

import (
	"fmt"
	"time"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/rsuchain/rsuchain/internal/authority"
	"github.com/rsuchain/rsuchain/internal/report"
	"github.com/rsuchain/rsuchain/internal/store"
	"github.com/rsuchain/rsuchain/internal/vehicle"
	"github.com/rsuchain/rsuchain/types"
)

// Engine applies authority decisions against a store branch.
type Engine struct {
	authorities *authority.Registry
	reports     *report.Pipeline
	vehicles    *vehicle.Ledger
	logger      log.Logger
}

// NewEngine returns an Engine over kv.
func NewEngine(kv store.KVStore, logger log.Logger) *Engine {
	return &Engine{
		authorities: authority.NewRegistry(kv),
		reports:     report.NewPipeline(kv, logger),
		vehicles:    vehicle.NewLedger(kv),
		logger:      logger,
	}
}

// Result is returned by Validate.
type Result struct {
	Vehicle types.Vehicle `json:"vehicle"`
	Report  types.Report  `json:"report"`
	Message string        `json:"message"`

	Adjudication types.Adjudication `json:"-"`
}

// Validate records the decision of the RSU acting for callerID on a pending
// report. Checks run in order: caller authority, report existence, report
// status, vehicle existence. On error the caller must discard the branch.
func (e *Engine) Validate(reportID string, isValid bool, callerID string, now time.Time) (Result, error) {
	rsu, err := e.authorities.RequireActiveAuthority(callerID)
	if err != nil {
		return Result{}, err
	}

	r, err := e.reports.Get(reportID)
	if err != nil {
		return Result{}, err
	}
	if r.Status != types.StatusPending {
		return Result{}, fmt.Errorf("%w: %s (status: %s)", types.ErrAlreadyValidated, reportID, r.Status)
	}

	v, err := e.vehicles.ApplyAdjudication(r.VehicleID, isValid)
	if err != nil {
		return Result{}, err
	}

	at := now
	verb := "validated"
	if isValid {
		r.Status = types.StatusValid
		r.ValidatedBy = rsu.RSUID
		r.ValidatedByLocation = rsu.Location
		r.ValidatedAt = &at
	} else {
		verb = "rejected"
		r.Status = types.StatusFalse
		r.RejectedBy = rsu.RSUID
		r.RejectedByLocation = rsu.Location
		r.RejectedAt = &at
	}
	if err := e.reports.Update(r); err != nil {
		return Result{}, err
	}
	if _, err := e.authorities.RecordValidation(rsu.RSUID, now); err != nil {
		return Result{}, err
	}

	e.logger.Info("report adjudicated",
		"report", r.ReportID, "status", r.Status, "rsu", rsu.RSUID, "reputation", v.Reputation)

	return Result{
		Vehicle: v,
		Report:  r,
		Message: fmt.Sprintf("Report %s by RSU: %s at %s", verb, rsu.RSUID, rsu.Location),
		Adjudication: types.Adjudication{
			ReportID:    r.ReportID,
			VehicleID:   r.VehicleID,
			EventType:   r.EventType,
			Status:      r.Status,
			RSUID:       rsu.RSUID,
			RSULocation: rsu.Location,
			Reputation:  v.Reputation,
			DecidedAt:   now,
		},
	}, nil
}
