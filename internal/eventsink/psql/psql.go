// Package psql implements an adjudication sink backed by a PostgreSQL
// database.
package psql

import (
	"context"
	"database/sql"
	_ "embed" // schema.sql
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/adlio/schema"
	_ "github.com/lib/pq" // register the postgres driver

	"github.com/rsuchain/rsuchain/internal/eventsink"
	"github.com/rsuchain/rsuchain/types"
)

const (
	TableAdjudications = "adjudications"
	DriverName         = "postgres"
)

//go:embed schema.sql
var schemaSQL string

var _ eventsink.Sink = (*EventSink)(nil)

// EventSink writes adjudications to PostgreSQL using the schema in
// schema.sql.
type EventSink struct {
	store   *sql.DB
	chainID string
}

// NewEventSink constructs a sink associated with the PostgreSQL database
// specified by connStr. Rows are attributed to chainID.
func NewEventSink(connStr, chainID string) (*EventSink, error) {
	db, err := sql.Open(DriverName, connStr)
	if err != nil {
		return nil, err
	}
	return newEventSink(db, chainID), nil
}

func newEventSink(db *sql.DB, chainID string) *EventSink {
	return &EventSink{
		store:   db,
		chainID: chainID,
	}
}

// DB returns the underlying Postgres connection used by the sink.
func (es *EventSink) DB() *sql.DB { return es.store }

// Type implements eventsink.Sink.
func (es *EventSink) Type() eventsink.Type { return eventsink.PSQL }

// Migrate creates the schema if it has not been applied yet.
func (es *EventSink) Migrate() error {
	return schema.NewMigrator().Apply(es.store, []*schema.Migration{{
		ID:     "2024-03-01 adjudications",
		Script: schemaSQL,
	}})
}

// IndexAdjudications inserts one row per adjudication. Rows already present
// are left alone, which makes replaying a block harmless.
func (es *EventSink) IndexAdjudications(ctx context.Context, adjs []types.Adjudication) error {
	if len(adjs) == 0 {
		return nil
	}

	stmt := sq.
		Insert(TableAdjudications).
		Columns("report_id", "vehicle_id", "event_type", "status", "rsu_id", "rsu_location",
			"reputation", "decided_at", "height", "chain_id", "created_at").
		PlaceholderFormat(sq.Dollar).
		Suffix("ON CONFLICT (report_id)").
		Suffix("DO NOTHING")

	ts := time.Now()
	for _, a := range adjs {
		stmt = stmt.Values(a.ReportID, a.VehicleID, a.EventType, string(a.Status), a.RSUID, a.RSULocation,
			a.Reputation, a.DecidedAt, a.Height, es.chainID, ts)
	}

	query, args, err := stmt.ToSql()
	if err != nil {
		return err
	}
	_, err = es.store.ExecContext(ctx, query, args...)
	return err
}

// Stop closes the database connection.
func (es *EventSink) Stop() error { return es.store.Close() }
