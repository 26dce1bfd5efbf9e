// Package eventsink defines where committed adjudications are exported to.
package eventsink

import (
	"context"

	"github.com/rsuchain/rsuchain/types"
)

// Type names a sink implementation in the configuration.
type Type string

const (
	NULL Type = "null"
	PSQL Type = "psql"
)

// Sink receives the adjudications of every committed block. Delivery is at
// least once: a batch that failed is sent again, together with the next one,
// so a sink must tolerate receiving an adjudication more than once. The
// context carries the export deadline.
type Sink interface {
	IndexAdjudications(ctx context.Context, adjs []types.Adjudication) error
	Type() Type
	Stop() error
}

// NullSink drops everything.
type NullSink struct{}

var _ Sink = NullSink{}

// NewNullSink returns a sink that discards all adjudications.
func NewNullSink() NullSink { return NullSink{} }

func (NullSink) IndexAdjudications(context.Context, []types.Adjudication) error { return nil }

func (NullSink) Type() Type { return NULL }

func (NullSink) Stop() error { return nil }
