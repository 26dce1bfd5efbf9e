package app

import (
	"encoding/json"
	"errors"
	"fmt"

	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/rsuchain/rsuchain/internal/authority"
	"github.com/rsuchain/rsuchain/internal/report"
	"github.com/rsuchain/rsuchain/internal/vehicle"
	"github.com/rsuchain/rsuchain/types"
)

// Query paths. Data carries the id where one is needed.
const (
	QueryReport               = "/report"
	QueryVehicle              = "/vehicle"
	QueryRSUs                 = "/rsus"
	QueryPendingReports       = "/reports/pending"
	QueryReportValidationInfo = "/report/validation_info"
	QueryAuthority            = "/authority"
)

var queryAliases = map[string]string{
	"/authorities":            QueryRSUs,
	"/reports/needing_review": QueryPendingReports,
}

var errUnknownPath = errors.New("unknown query path")

// AuthorityStatus answers QueryAuthority.
type AuthorityStatus struct {
	IsAuthority bool       `json:"isAuthority"`
	RSU         *types.RSU `json:"rsu,omitempty"`
}

// reader gives read access to the committed state.
type reader struct {
	authorities *authority.Registry
	vehicles    *vehicle.Ledger
	reports     *report.Pipeline
}

func (app *Application) reader() reader {
	kv := app.db.Branch()
	return reader{
		authorities: authority.NewRegistry(kv),
		vehicles:    vehicle.NewLedger(kv),
		reports:     report.NewPipeline(kv, app.logger),
	}
}

// Query reads committed state only. Historical heights are not kept.
func (app *Application) Query(req abci.RequestQuery) abci.ResponseQuery {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	if req.Height != 0 && req.Height != app.state.Height {
		return app.queryError(req, fmt.Errorf("height %d is not available, latest is %d", req.Height, app.state.Height))
	}

	value, err := app.query(req.Path, string(req.Data))
	if err != nil {
		return app.queryError(req, err)
	}
	bz, err := json.Marshal(value)
	if err != nil {
		return app.queryError(req, err)
	}
	return abci.ResponseQuery{
		Code:   CodeTypeOK,
		Key:    req.Data,
		Value:  bz,
		Height: app.state.Height,
	}
}

func (app *Application) query(path, id string) (interface{}, error) {
	if p, ok := queryAliases[path]; ok {
		path = p
	}
	r := app.reader()

	switch path {
	case QueryReport:
		return r.reports.Get(id)
	case QueryVehicle:
		return r.vehicles.Get(id)
	case QueryRSUs:
		return r.authorities.List()
	case QueryPendingReports:
		return r.reports.Pending()
	case QueryReportValidationInfo:
		return r.reports.ValidationInfo(id)
	case QueryAuthority:
		rsu, err := r.authorities.ResolveCaller(id)
		if err != nil {
			return nil, err
		}
		return AuthorityStatus{IsAuthority: rsu != nil, RSU: rsu}, nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownPath, path)
}

func (app *Application) queryError(req abci.RequestQuery, err error) abci.ResponseQuery {
	return abci.ResponseQuery{
		Code:      errorCode(err),
		Codespace: Codespace,
		Log:       err.Error(),
		Key:       req.Data,
		Height:    app.state.Height,
	}
}
