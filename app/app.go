package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/crypto/merkle"
	"github.com/tendermint/tendermint/libs/log"
	dbm "github.com/tendermint/tm-db"

	"github.com/rsuchain/rsuchain/internal/eventsink"
	"github.com/rsuchain/rsuchain/internal/store"
	"github.com/rsuchain/rsuchain/types"
	"github.com/rsuchain/rsuchain/version"
)

var _ abci.Application = (*Application)(nil)

// appState is persisted with every commit.
type appState struct {
	Height  int64  `json:"height"`
	AppHash []byte `json:"app_hash"`
}

// Application is the ABCI state machine. Every DeliverTx runs in its own
// branch of the block branch and is merged only if it succeeds; Commit
// flushes the block branch to the database in one batch.
type Application struct {
	abci.BaseApplication

	mtx    sync.Mutex
	db     *store.DB
	state  appState
	logger log.Logger

	// per block
	block         *store.Tx
	blockTime     time.Time
	adjudications []types.Adjudication

	metrics *Metrics

	// export runs after Commit releases mtx
	exportMtx   sync.Mutex
	sink        eventsink.Sink
	sinkTimeout time.Duration
	unexported  []types.Adjudication
}

const (
	// DefaultSinkTimeout bounds a single export to the sink.
	DefaultSinkTimeout = 5 * time.Second

	// maxUnexported caps the adjudications kept for retry while the sink
	// keeps failing. The oldest are dropped first.
	maxUnexported = 10000
)

// Option sets an optional parameter on the Application.
type Option func(*Application)

// WithSink exports committed adjudications to sink.
func WithSink(sink eventsink.Sink) Option {
	return func(app *Application) { app.sink = sink }
}

// WithSinkTimeout bounds every export to the sink by d.
func WithSinkTimeout(d time.Duration) Option {
	return func(app *Application) { app.sinkTimeout = d }
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(app *Application) { app.metrics = metrics }
}

// NewApplication loads the last committed state from db.
func NewApplication(db dbm.DB, opts ...Option) (*Application, error) {
	app := &Application{
		db:      store.NewDB(db),
		logger:  log.NewNopLogger(),
		sink:        eventsink.NewNullSink(),
		sinkTimeout: DefaultSinkTimeout,
		metrics:     NopMetrics(),
	}
	for _, opt := range opts {
		opt(app)
	}

	if _, err := store.GetJSON(app.db, store.AppStateKey(), &app.state); err != nil {
		return nil, fmt.Errorf("load app state: %w", err)
	}
	pending, err := app.reader().reports.Pending()
	if err != nil {
		return nil, fmt.Errorf("count pending reports: %w", err)
	}
	app.metrics.PendingReports.Set(float64(pending.Count))
	app.metrics.BlockHeight.Set(float64(app.state.Height))
	return app, nil
}

// SetLogger sets the logger.
func (app *Application) SetLogger(l log.Logger) {
	app.logger = l
}

// Close closes the underlying database.
func (app *Application) Close() error {
	return app.db.Close()
}

func (app *Application) Info(req abci.RequestInfo) abci.ResponseInfo {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	return abci.ResponseInfo{
		Data:             "rsuchain",
		Version:          version.Version,
		AppVersion:       version.AppProtocol,
		LastBlockHeight:  app.state.Height,
		LastBlockAppHash: app.state.AppHash,
	}
}

// InitChain applies the genesis app state. Its writes are committed with
// the first block.
func (app *Application) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	gs, err := types.GenesisStateFromJSON(req.AppStateBytes)
	if err != nil {
		panic(err)
	}
	app.blockTime = req.Time
	if err := applyGenesis(app.branch(), gs, req.Time); err != nil {
		panic(fmt.Errorf("apply genesis: %w", err))
	}
	app.logger.Info("applied genesis", "chain", req.ChainId,
		"authorities", gs.Authorities != nil, "vehicles", len(gs.Vehicles))
	return abci.ResponseInitChain{}
}

func (app *Application) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	app.blockTime = req.Header.Time
	app.branch()
	return abci.ResponseBeginBlock{}
}

// CheckTx only runs stateless checks: every stateful rule depends on the
// order of the block, which is not known yet.
func (app *Application) CheckTx(req abci.RequestCheckTx) abci.ResponseCheckTx {
	if _, _, err := types.DecodeTx(req.Tx); err != nil {
		return abci.ResponseCheckTx{Code: errorCode(err), Codespace: Codespace, Log: err.Error()}
	}
	return abci.ResponseCheckTx{Code: CodeTypeOK, GasWanted: 1}
}

func (app *Application) DeliverTx(req abci.RequestDeliverTx) abci.ResponseDeliverTx {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	tx, msg, err := types.DecodeTx(req.Tx)
	if err != nil {
		return app.reject(tx, err)
	}

	kv := app.branch().Branch()
	res, err := app.execute(kv, tx, msg)
	if err != nil {
		kv.Discard()
		return app.reject(tx, err)
	}

	data, err := json.Marshal(res.result)
	if err != nil {
		kv.Discard()
		return app.reject(tx, err)
	}
	if err := kv.Write(); err != nil {
		return app.reject(tx, err)
	}
	if res.adjudication != nil {
		app.adjudications = append(app.adjudications, *res.adjudication)
	}
	app.logger.Debug("delivered tx", "type", tx.Type, "caller", tx.Caller.ID)
	return abci.ResponseDeliverTx{Code: CodeTypeOK, Data: data, Events: res.events}
}

func (app *Application) reject(tx types.Tx, err error) abci.ResponseDeliverTx {
	code := errorCode(err)
	app.metrics.RejectedTxs.With("code", fmt.Sprint(code)).Add(1)
	app.logger.Debug("rejected tx", "type", tx.Type, "caller", tx.Caller.ID, "code", code, "err", err)
	return abci.ResponseDeliverTx{Code: code, Codespace: Codespace, Log: err.Error()}
}

// Commit persists the block and then exports its adjudications. The export
// runs without holding the application lock and is bounded by the sink
// timeout.
func (app *Application) Commit() abci.ResponseCommit {
	res, adjs := app.commit()
	app.export(adjs)
	return res
}

// commit persists the block. The app hash chains the previous hash with the
// sorted writes of the block, so it stays the same across empty blocks.
func (app *Application) commit() (abci.ResponseCommit, []types.Adjudication) {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	block := app.branch()
	changes := block.Changes()

	app.state.Height++
	if len(changes) > 0 {
		leaves := make([][]byte, 0, len(changes)+1)
		leaves = append(leaves, app.state.AppHash)
		for _, c := range changes {
			leaves = append(leaves, c.Bytes())
		}
		app.state.AppHash = merkle.HashFromByteSlices(leaves)
	}
	if err := store.SetJSON(block, store.AppStateKey(), app.state); err != nil {
		panic(err)
	}
	if err := block.Write(); err != nil {
		panic(fmt.Errorf("commit block %d: %w", app.state.Height, err))
	}
	app.block = nil
	app.metrics.BlockHeight.Set(float64(app.state.Height))

	adjs := app.adjudications
	app.adjudications = nil
	for i := range adjs {
		adjs[i].Height = app.state.Height
	}

	app.logger.Info("committed state", "height", app.state.Height, "hash", fmt.Sprintf("%X", app.state.AppHash))
	return abci.ResponseCommit{Data: app.state.AppHash}, adjs
}

// export hands adjs, preceded by any adjudications a previous export failed
// to deliver, to the sink. Failed batches are kept and sent again with the
// next commit.
func (app *Application) export(adjs []types.Adjudication) {
	app.exportMtx.Lock()
	defer app.exportMtx.Unlock()

	batch := append(app.unexported, adjs...)
	if len(batch) == 0 {
		return
	}
	if n := len(batch) - maxUnexported; n > 0 {
		app.logger.Error("dropping adjudications that could not be exported", "count", n)
		batch = batch[n:]
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.sinkTimeout)
	defer cancel()
	if err := app.sink.IndexAdjudications(ctx, batch); err != nil {
		app.unexported = batch
		app.logger.Error("failed to export adjudications", "pending", len(batch), "err", err)
		return
	}
	app.unexported = nil
}

// branch returns the branch of the block in progress, opening it if needed.
func (app *Application) branch() *store.Tx {
	if app.block == nil {
		app.block = app.db.Branch()
	}
	return app.block
}
