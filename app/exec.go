package app

import (
	"fmt"
	"strconv"
	"time"

	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/rsuchain/rsuchain/internal/authority"
	"github.com/rsuchain/rsuchain/internal/report"
	"github.com/rsuchain/rsuchain/internal/store"
	"github.com/rsuchain/rsuchain/internal/validation"
	"github.com/rsuchain/rsuchain/internal/vehicle"
	"github.com/rsuchain/rsuchain/types"
)

// Event types emitted by DeliverTx.
const (
	EventTypeRSU          = "rsu"
	EventTypeVehicle      = "vehicle"
	EventTypeReport       = "report"
	EventTypeAdjudication = "adjudication"
)

type execResult struct {
	result       interface{}
	events       []abci.Event
	adjudication *types.Adjudication
}

type registryResult struct {
	Message  string          `json:"message"`
	Registry *types.Registry `json:"rsuRegistry"`
}

type rsuResult struct {
	Message string     `json:"message"`
	RSU     *types.RSU `json:"rsu"`
}

// execute runs one decoded transaction against kv at the current block time.
func (app *Application) execute(kv store.KVStore, tx types.Tx, msg types.Msg) (execResult, error) {
	now := app.blockTime
	logger := app.logger

	switch m := msg.(type) {
	case *types.InitAuthoritiesMsg:
		reg, err := authority.NewRegistry(kv).Initialize(tx.Caller, now)
		if err != nil {
			return execResult{}, err
		}
		logger.Info("RSU registry initialized", "by", tx.Caller.ID)
		return execResult{
			result: registryResult{Message: "RSU registry initialized", Registry: reg},
			events: []abci.Event{event(EventTypeRSU, "action", "initialized")},
		}, nil

	case *types.RegisterRSUMsg:
		rsu, err := authority.NewRegistry(kv).Register(*m, tx.Caller.ID, now)
		if err != nil {
			return execResult{}, err
		}
		logger.Info("RSU registered", "rsu", rsu.RSUID, "msp", rsu.MSPID, "by", tx.Caller.ID)
		return execResult{
			result: rsuResult{Message: "RSU registered successfully", RSU: rsu},
			events: []abci.Event{event(EventTypeRSU, "id", rsu.RSUID, "action", "registered")},
		}, nil

	case *types.DeactivateRSUMsg:
		rsu, err := authority.NewRegistry(kv).Deactivate(m.RSUID, now)
		if err != nil {
			return execResult{}, err
		}
		logger.Info("RSU deactivated", "rsu", rsu.RSUID, "by", tx.Caller.ID)
		return execResult{
			result: rsuResult{Message: "RSU deactivated successfully", RSU: rsu},
			events: []abci.Event{event(EventTypeRSU, "id", rsu.RSUID, "action", "deactivated")},
		}, nil

	case *types.RegisterVehicleMsg:
		v, err := vehicle.NewLedger(kv).Register(m.VehicleID)
		if err != nil {
			return execResult{}, err
		}
		return execResult{
			result: v,
			events: []abci.Event{event(EventTypeVehicle, "id", v.VehicleID, "action", "registered")},
		}, nil

	case *types.SubmitReportMsg:
		res, err := report.NewPipeline(kv, logger).Submit(*m, now)
		if err != nil {
			return execResult{}, err
		}
		r := res.Report
		app.metrics.ReportsSubmitted.Add(1)
		app.metrics.Corroborations.Observe(float64(r.CorroborationCount))
		app.metrics.PendingReports.Add(1)
		return execResult{
			result: res,
			events: []abci.Event{event(EventTypeReport,
				"id", r.ReportID,
				"vehicle", r.VehicleID,
				"event_type", r.EventType,
				"corroborations", strconv.Itoa(r.CorroborationCount),
			)},
		}, nil

	case *types.ValidateReportMsg:
		res, err := validation.NewEngine(kv, logger).Validate(m.ReportID, *m.IsValid, tx.Caller.ID, now)
		if err != nil {
			return execResult{}, err
		}
		app.metrics.Adjudications.With("status", string(res.Report.Status)).Add(1)
		app.metrics.PendingReports.Add(-1)
		adj := res.Adjudication
		return execResult{
			result: res,
			events: []abci.Event{
				event(EventTypeAdjudication,
					"report", adj.ReportID,
					"status", string(adj.Status),
					"rsu", adj.RSUID,
				),
				event(EventTypeVehicle,
					"id", res.Vehicle.VehicleID,
					"reputation", strconv.FormatInt(res.Vehicle.Reputation, 10),
				),
			},
			adjudication: &adj,
		}, nil
	}

	return execResult{}, fmt.Errorf("%w: unhandled type %q", types.ErrInvalidTx, tx.Type)
}

// applyGenesis seeds the registry and the vehicle ledger.
func applyGenesis(kv store.KVStore, gs types.GenesisState, now time.Time) error {
	if a := gs.Authorities; a != nil {
		reg := authority.NewRegistry(kv)
		if _, err := reg.Initialize(a.Initializer, now); err != nil {
			return err
		}
		for _, msg := range a.RSUs {
			if _, err := reg.Register(msg, a.Initializer.ID, now); err != nil {
				return err
			}
		}
	}

	ledger := vehicle.NewLedger(kv)
	for _, id := range gs.Vehicles {
		if _, err := ledger.Register(id); err != nil {
			return err
		}
	}
	return nil
}

// event builds an event whose attributes are all indexed.
func event(typ string, kvs ...string) abci.Event {
	attrs := make([]abci.EventAttribute, 0, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		attrs = append(attrs, abci.EventAttribute{
			Key:   []byte(kvs[i]),
			Value: []byte(kvs[i+1]),
			Index: true,
		})
	}
	return abci.Event{Type: typ, Attributes: attrs}
}
