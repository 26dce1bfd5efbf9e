package psql

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsuchain/rsuchain/internal/eventsink"
	"github.com/rsuchain/rsuchain/types"
)

const chainID = "test-chainID"

var decidedAt = time.Date(2024, 3, 1, 12, 10, 0, 0, time.UTC)

func newMockSink(t *testing.T) (*EventSink, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return newEventSink(db, chainID), mock
}

func adjudication(reportID string, status types.ReportStatus, reputation int64) types.Adjudication {
	return types.Adjudication{
		ReportID:    reportID,
		VehicleID:   "V1",
		EventType:   "ACCIDENT",
		Status:      status,
		RSUID:       "RSU1",
		RSULocation: "Main St & 5th",
		Reputation:  reputation,
		DecidedAt:   decidedAt,
		Height:      7,
	}
}

func TestType(t *testing.T) {
	es, _ := newMockSink(t)
	assert.Equal(t, eventsink.PSQL, es.Type())
}

func TestIndexAdjudications(t *testing.T) {
	es, mock := newMockSink(t)

	mock.ExpectExec(`INSERT INTO adjudications \(report_id,vehicle_id,.*\) VALUES .* ON CONFLICT \(report_id\) DO NOTHING`).
		WithArgs(
			"R1", "V1", "ACCIDENT", "VALID", "RSU1", "Main St & 5th", int64(55), decidedAt, int64(7), chainID, sqlmock.AnyArg(),
			"R2", "V1", "ACCIDENT", "FALSE", "RSU1", "Main St & 5th", int64(45), decidedAt, int64(7), chainID, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := es.IndexAdjudications(context.Background(), []types.Adjudication{
		adjudication("R1", types.StatusValid, 55),
		adjudication("R2", types.StatusFalse, 45),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndexAdjudicationsEmpty(t *testing.T) {
	es, mock := newMockSink(t)
	require.NoError(t, es.IndexAdjudications(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndexAdjudicationsError(t *testing.T) {
	es, mock := newMockSink(t)
	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO adjudications").WillReturnError(boom)

	err := es.IndexAdjudications(context.Background(), []types.Adjudication{adjudication("R1", types.StatusValid, 55)})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStop(t *testing.T) {
	es, mock := newMockSink(t)
	mock.ExpectClose()
	require.NoError(t, es.Stop())
	assert.NoError(t, mock.ExpectationsWereMet())
}
