package report

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	dbm "github.com/tendermint/tm-db"
	"pgregory.net/rapid"

	"github.com/rsuchain/rsuchain/internal/corroboration"
	"github.com/rsuchain/rsuchain/internal/store"
	"github.com/rsuchain/rsuchain/internal/vehicle"
	"github.com/rsuchain/rsuchain/types"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

func newPipeline(t testingT, vehicles ...string) (*Pipeline, *store.Tx) {
	t.Helper()
	kv := store.NewDB(dbm.NewMemDB()).Branch()
	l := vehicle.NewLedger(kv)
	for _, id := range vehicles {
		_, err := l.Register(id)
		require.NoError(t, err)
	}
	return NewPipeline(kv, log.NewNopLogger()), kv
}

func accident(reportID, vehicleID string, lat, lon float64) types.SubmitReportMsg {
	return types.SubmitReportMsg{
		ReportID:  reportID,
		VehicleID: vehicleID,
		EventType: "ACCIDENT",
		Location:  "Main St",
		Latitude:  lat,
		Longitude: lon,
	}
}

func TestSubmitCorroborationSnapshot(t *testing.T) {
	p, kv := newPipeline(t, "V1", "V2")

	res1, err := p.Submit(accident("R1", "V1", 40.0, -73.0), t0)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, res1.Report.Status)
	assert.Empty(t, res1.Report.CorroboratingReports)
	assert.Equal(t, "Report PENDING RSU validation. No corroborating reports found - possible isolated incident.",
		res1.Message)
	assert.Equal(t, SecurityNote, res1.SecurityNote)

	res2, err := p.Submit(accident("R2", "V2", 40.0, -73.0), t0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"R1"}, res2.Report.CorroboratingReports)
	assert.Equal(t, 1, res2.Report.CorroborationCount)
	assert.Equal(t, types.StatusPending, res2.Report.Status)
	assert.Equal(t, "Report PENDING RSU validation. Found 1 corroborating report(s) for RSU reference.",
		res2.Message)

	// R1 is not linked back to R2
	r1, err := p.Get("R1")
	require.NoError(t, err)
	assert.Empty(t, r1.CorroboratingReports)
	assert.Zero(t, r1.CorroborationCount)
	assert.Equal(t, t0, r1.TimeStamp)

	v, err := vehicle.NewLedger(kv).Get("V2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, v.TotalReports)
}

func TestSubmitExcludesSameVehicle(t *testing.T) {
	p, _ := newPipeline(t, "V1")

	_, err := p.Submit(accident("R1", "V1", 40.0, -73.0), t0)
	require.NoError(t, err)
	res, err := p.Submit(accident("R2", "V1", 40.0, -73.0), t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, res.Report.CorroboratingReports)
}

func TestSubmitAcrossBucketBoundary(t *testing.T) {
	p, _ := newPipeline(t, "V1", "V2", "V3")
	boundary := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	_, err := p.Submit(accident("R1", "V1", 40.0, -73.0), boundary.Add(-29*time.Minute))
	require.NoError(t, err)
	_, err = p.Submit(accident("R2", "V2", 40.0, -73.0), boundary.Add(time.Minute))
	require.NoError(t, err)

	res, err := p.Submit(accident("R3", "V3", 40.0, -73.0), boundary.Add(29*time.Minute))
	require.NoError(t, err)
	// R1 is 58 minutes away
	assert.Equal(t, []string{"R2"}, res.Report.CorroboratingReports)
}

func TestSubmitErrors(t *testing.T) {
	p, kv := newPipeline(t, "V1")

	_, err := p.Submit(accident("R1", "V9", 40.0, -73.0), t0)
	assert.ErrorIs(t, err, types.ErrVehicleNotFound)

	_, err = p.Submit(accident("R1", "V1", 40.0, -73.0), t0)
	require.NoError(t, err)
	_, err = p.Submit(accident("R1", "V1", 41.0, -73.0), t0)
	assert.ErrorIs(t, err, types.ErrDuplicateReport)

	v, err := vehicle.NewLedger(kv).Get("V1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, v.TotalReports)

	_, err = p.Get("R9")
	assert.ErrorIs(t, err, types.ErrReportNotFound)
}

func TestPending(t *testing.T) {
	p, _ := newPipeline(t, "V1", "V2")

	list, err := p.Pending()
	require.NoError(t, err)
	assert.Zero(t, list.Count)
	assert.Empty(t, list.Reports)
	assert.Equal(t, PendingMessage, list.Message)

	_, err = p.Submit(accident("R2", "V1", 40.0, -73.0), t0)
	require.NoError(t, err)
	_, err = p.Submit(accident("R1", "V2", 40.0, -73.0), t0)
	require.NoError(t, err)

	r, err := p.Get("R2")
	require.NoError(t, err)
	r.Status = types.StatusValid
	require.NoError(t, p.Update(r))

	list, err = p.Pending()
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "R1", list.Reports[0].ReportID)
}

func TestValidationInfo(t *testing.T) {
	p, kv := newPipeline(t, "V1", "V2", "V3")
	ledger := vehicle.NewLedger(kv)

	_, err := p.Submit(accident("R1", "V1", 40.0, -73.0), t0)
	require.NoError(t, err)
	_, err = p.Submit(accident("R2", "V2", 40.0, -73.0), t0.Add(time.Minute))
	require.NoError(t, err)
	_, err = p.Submit(accident("R3", "V3", 40.0, -73.0), t0.Add(2*time.Minute))
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		_, err = ledger.ApplyAdjudication("V3", true)
		require.NoError(t, err)
	}

	info, err := p.ValidationInfo("R3")
	require.NoError(t, err)
	assert.Equal(t, "R3", info.Report.ReportID)
	assert.EqualValues(t, 80, info.VehicleInfo.Reputation)
	assert.Equal(t, 2, info.Corroboration.Count)
	require.Len(t, info.Corroboration.Details, 2)
	assert.Equal(t, types.CorroboratingDetail{
		ReportID:          "R1",
		VehicleID:         "V1",
		VehicleReputation: 50,
		Timestamp:         t0,
		Status:            types.StatusPending,
	}, info.Corroboration.Details[0])
	assert.Equal(t, 5, info.Recommendation.Score)
	assert.Equal(t, types.LikelyValid, info.Recommendation.Recommendation)

	_, err = p.ValidationInfo("R9")
	assert.ErrorIs(t, err, types.ErrReportNotFound)
}

func TestValidationInfoMissingAndCorruptRecords(t *testing.T) {
	setup := func(t *testing.T) (*Pipeline, *store.Tx) {
		p, kv := newPipeline(t, "V1", "V2")
		_, err := p.Submit(accident("R1", "V1", 40.0, -73.0), t0)
		require.NoError(t, err)
		_, err = p.Submit(accident("R2", "V2", 40.0, -73.0), t0.Add(time.Minute))
		require.NoError(t, err)
		return p, kv
	}

	t.Run("missing report is skipped", func(t *testing.T) {
		p, kv := setup(t)
		require.NoError(t, kv.Delete(store.ReportKey("R1")))
		info, err := p.ValidationInfo("R2")
		require.NoError(t, err)
		assert.Equal(t, 1, info.Corroboration.Count)
		assert.Empty(t, info.Corroboration.Details)
	})

	t.Run("missing vehicle counts as zero", func(t *testing.T) {
		p, kv := setup(t)
		require.NoError(t, kv.Delete(store.VehicleKey("V1")))
		info, err := p.ValidationInfo("R2")
		require.NoError(t, err)
		require.Len(t, info.Corroboration.Details, 1)
		assert.EqualValues(t, 0, info.Corroboration.Details[0].VehicleReputation)
	})

	t.Run("corrupt report fails", func(t *testing.T) {
		p, kv := setup(t)
		require.NoError(t, kv.Set(store.ReportKey("R1"), []byte("{not json")))
		_, err := p.ValidationInfo("R2")
		require.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrReportNotFound)
	})

	t.Run("corrupt vehicle fails", func(t *testing.T) {
		p, kv := setup(t)
		require.NoError(t, kv.Set(store.VehicleKey("V1"), []byte("{not json")))
		_, err := p.ValidationInfo("R2")
		require.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrVehicleNotFound)
	})
}

func TestBucketOf(t *testing.T) {
	assert.EqualValues(t, 0, bucketOf(time.Unix(0, 0)))
	assert.EqualValues(t, 0, bucketOf(time.Unix(1799, 0)))
	assert.EqualValues(t, 1, bucketOf(time.Unix(1800, 0)))
	assert.EqualValues(t, -1, bucketOf(time.Unix(-1, 0)))
	assert.EqualValues(t, -1, bucketOf(time.Unix(-1800, 0)))
	assert.EqualValues(t, -2, bucketOf(time.Unix(-1801, 0)))
}

// TestIndexedSearchMatchesScan checks that the indexed search finds exactly
// the reports a scan over every stored report would.
func TestIndexedSearchMatchesScan(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vehicles := []string{"V0", "V1", "V2", "V3"}
		p, _ := newPipeline(t, vehicles...)

		var stored []types.Report
		for i, n := 0, rapid.IntRange(1, 25).Draw(t, "n").(int); i < n; i++ {
			msg := types.SubmitReportMsg{
				ReportID:  fmt.Sprintf("R%02d", i),
				VehicleID: rapid.SampledFrom(vehicles).Draw(t, "vehicle").(string),
				EventType: rapid.SampledFrom([]string{"ACCIDENT", "HAZARD"}).Draw(t, "type").(string),
				Latitude:  40 + rapid.Float64Range(0, 0.01).Draw(t, "lat").(float64),
				Longitude: -73 + rapid.Float64Range(0, 0.01).Draw(t, "lon").(float64),
			}
			now := t0.Add(time.Duration(rapid.IntRange(0, 4*3600).Draw(t, "sec").(int)) * time.Second)

			res, err := p.Submit(msg, now)
			if err != nil {
				t.Fatal(err)
			}

			var want []string
			for _, other := range stored {
				if corroboration.Corroborates(res.Report, other) {
					want = append(want, other.ReportID)
				}
			}
			got := append([]string(nil), res.Report.CorroboratingReports...)
			sort.Strings(got)
			sort.Strings(want)
			if fmt.Sprint(got) != fmt.Sprint(want) {
				t.Fatalf("report %s: got %v want %v", msg.ReportID, got, want)
			}
			stored = append(stored, res.Report)
		}
	})
}
