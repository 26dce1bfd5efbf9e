// Package report creates event reports, links them to corroborating reports
// and serves the read views authorities use to adjudicate them.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/rsuchain/rsuchain/internal/advisor"
	"github.com/rsuchain/rsuchain/internal/corroboration"
	"github.com/rsuchain/rsuchain/internal/store"
	"github.com/rsuchain/rsuchain/internal/vehicle"
	"github.com/rsuchain/rsuchain/types"
)

const (
	// SecurityNote accompanies every submission result.
	SecurityNote = "Pure PoA: All reports require RSU validation to prevent injection attacks"
	// PendingMessage accompanies the pending-report listing.
	PendingMessage = "All reports require RSU validation (Pure PoA)"
)

// Reports are indexed by event type and by the corroboration.TimeWindow wide
// bucket of their timestamp. The window around any instant spans at most the
// instant's bucket and its two neighbours.
var bucketWidth = int64(corroboration.TimeWindow / time.Second)

func bucketOf(t time.Time) int64 {
	sec := t.Unix()
	b := sec / bucketWidth
	if sec%bucketWidth < 0 {
		b--
	}
	return b
}

// Pipeline runs report operations against a store branch.
type Pipeline struct {
	kv       store.KVStore
	vehicles *vehicle.Ledger
	logger   log.Logger
}

// NewPipeline returns a Pipeline over kv.
func NewPipeline(kv store.KVStore, logger log.Logger) *Pipeline {
	return &Pipeline{
		kv:       kv,
		vehicles: vehicle.NewLedger(kv),
		logger:   logger,
	}
}

// SubmitResult is returned by Submit.
type SubmitResult struct {
	Report       types.Report `json:"report"`
	Message      string       `json:"message"`
	SecurityNote string       `json:"securityNote"`
}

// Submit creates a PENDING report stamped with now and records the reports
// that corroborate it at this moment. The list is never updated afterwards,
// and no report is ever validated here.
func (p *Pipeline) Submit(msg types.SubmitReportMsg, now time.Time) (SubmitResult, error) {
	ok, err := p.vehicles.Exists(msg.VehicleID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !ok {
		return SubmitResult{}, fmt.Errorf("%w: %s", types.ErrVehicleNotFound, msg.VehicleID)
	}
	ok, err = p.kv.Has(store.ReportKey(msg.ReportID))
	if err != nil {
		return SubmitResult{}, err
	}
	if ok {
		return SubmitResult{}, fmt.Errorf("%w: %s", types.ErrDuplicateReport, msg.ReportID)
	}

	r := types.NewPendingReport(msg.ReportID, msg.VehicleID, msg.EventType, msg.Location,
		msg.Latitude, msg.Longitude, now)

	matches, err := p.FindCorroborating(r)
	if err != nil {
		return SubmitResult{}, err
	}
	for _, m := range matches {
		r.CorroboratingReports = append(r.CorroboratingReports, m.ReportID)
	}
	r.CorroborationCount = len(r.CorroboratingReports)

	if _, err := p.vehicles.RecordReportSubmitted(r.VehicleID); err != nil {
		return SubmitResult{}, err
	}
	if err := p.insert(r); err != nil {
		return SubmitResult{}, err
	}

	p.logger.Info("report submitted",
		"report", r.ReportID, "vehicle", r.VehicleID, "event", r.EventType,
		"corroborations", r.CorroborationCount)

	return SubmitResult{
		Report:       r,
		Message:      pendingMessage(r.CorroborationCount),
		SecurityNote: SecurityNote,
	}, nil
}

// FindCorroborating returns the stored reports that corroborate candidate,
// in index order.
func (p *Pipeline) FindCorroborating(candidate types.Report) ([]types.Report, error) {
	b := bucketOf(candidate.TimeStamp)
	start, end := store.CorroborationRange(candidate.EventType, b-1, b+1)

	var ids []string
	err := p.kv.Iterate(start, end, func(_, value []byte) bool {
		ids = append(ids, string(value))
		return true
	})
	if err != nil {
		return nil, err
	}

	var matches []types.Report
	for _, id := range ids {
		other, err := p.Get(id)
		if err != nil {
			return nil, fmt.Errorf("corroboration index: %w", err)
		}
		if corroboration.Corroborates(candidate, other) {
			matches = append(matches, other)
		}
	}
	p.logger.Debug("corroboration search", "report", candidate.ReportID,
		"candidates", len(ids), "matches", len(matches))
	return matches, nil
}

// Get loads a report.
func (p *Pipeline) Get(reportID string) (types.Report, error) {
	var r types.Report
	ok, err := store.GetJSON(p.kv, store.ReportKey(reportID), &r)
	if err != nil {
		return types.Report{}, err
	}
	if !ok {
		return types.Report{}, fmt.Errorf("%w: %s", types.ErrReportNotFound, reportID)
	}
	return r, nil
}

// Update stores an existing report and drops it from the pending index once
// it is decided.
func (p *Pipeline) Update(r types.Report) error {
	if err := store.SetJSON(p.kv, store.ReportKey(r.ReportID), r); err != nil {
		return err
	}
	if r.Status.IsTerminal() {
		return p.kv.Delete(store.PendingKey(r.ReportID))
	}
	return nil
}

// PendingList is the read view of reports awaiting adjudication.
type PendingList struct {
	Count   int            `json:"count"`
	Reports []types.Report `json:"reports"`
	Message string         `json:"message"`
}

// Pending lists every PENDING report, ordered by report id.
func (p *Pipeline) Pending() (PendingList, error) {
	start, end := store.PendingRange()

	var ids []string
	err := p.kv.Iterate(start, end, func(_, value []byte) bool {
		ids = append(ids, string(value))
		return true
	})
	if err != nil {
		return PendingList{}, err
	}

	reports := make([]types.Report, 0, len(ids))
	for _, id := range ids {
		r, err := p.Get(id)
		if err != nil {
			return PendingList{}, fmt.Errorf("pending index: %w", err)
		}
		if r.Status == types.StatusPending {
			reports = append(reports, r)
		}
	}
	return PendingList{
		Count:   len(reports),
		Reports: reports,
		Message: PendingMessage,
	}, nil
}

// ValidationInfo gathers the report, its vehicle, the current standing of
// every corroborating vehicle and a recommendation. Corroborating reports that
// no longer resolve are left out; a missing corroborating vehicle counts as
// reputation 0 with no false reports.
func (p *Pipeline) ValidationInfo(reportID string) (types.ValidationInfo, error) {
	r, err := p.Get(reportID)
	if err != nil {
		return types.ValidationInfo{}, err
	}
	v, err := p.vehicles.Get(r.VehicleID)
	if err != nil {
		return types.ValidationInfo{}, err
	}

	details := make([]types.CorroboratingDetail, 0, len(r.CorroboratingReports))
	for _, id := range r.CorroboratingReports {
		other, err := p.Get(id)
		if errors.Is(err, types.ErrReportNotFound) {
			continue
		}
		if err != nil {
			return types.ValidationInfo{}, err
		}
		d := types.CorroboratingDetail{
			ReportID:  other.ReportID,
			VehicleID: other.VehicleID,
			Timestamp: other.TimeStamp,
			Status:    other.Status,
		}
		ov, err := p.vehicles.Get(other.VehicleID)
		switch {
		case err == nil:
			d.VehicleReputation = ov.Reputation
			d.VehicleFalseReports = ov.FalseReports
		case !errors.Is(err, types.ErrVehicleNotFound):
			return types.ValidationInfo{}, err
		}
		details = append(details, d)
	}

	return types.ValidationInfo{
		Report:      r,
		VehicleInfo: v,
		Corroboration: types.Corroboration{
			Count:   r.CorroborationCount,
			Details: details,
		},
		Recommendation: advisor.Recommend(v, details),
	}, nil
}

func (p *Pipeline) insert(r types.Report) error {
	if err := store.SetJSON(p.kv, store.ReportKey(r.ReportID), r); err != nil {
		return err
	}
	id := []byte(r.ReportID)
	if err := p.kv.Set(store.PendingKey(r.ReportID), id); err != nil {
		return err
	}
	return p.kv.Set(store.CorroborationKey(r.EventType, bucketOf(r.TimeStamp), r.ReportID), id)
}

func pendingMessage(corroborations int) string {
	if corroborations > 0 {
		return fmt.Sprintf("Report PENDING RSU validation. Found %d corroborating report(s) for RSU reference.",
			corroborations)
	}
	return "Report PENDING RSU validation. No corroborating reports found - possible isolated incident."
}
