package corroboration

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/rsuchain/rsuchain/types"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func report(id, vehicle string, lat, lon float64, at time.Time) types.Report {
	return types.NewPendingReport(id, vehicle, "ACCIDENT", "Main St", lat, lon, at)
}

func TestDistance(t *testing.T) {
	assert.Zero(t, Distance(40, -73, 40, -73))

	// one degree of latitude is ~111.19 km on a 6371 km sphere
	assert.InDelta(t, 111.19, Distance(0, 0, 1, 0), 0.01)

	// New York -> London
	assert.InDelta(t, 5570, Distance(40.7128, -74.0060, 51.5074, -0.1278), 10)
}

func TestCorroborates(t *testing.T) {
	base := report("R1", "V1", 40.0, -73.0, t0)

	testCases := []struct {
		name  string
		other types.Report
		want  bool
	}{
		{"same spot five minutes later", report("R2", "V2", 40.0, -73.0, t0.Add(5*time.Minute)), true},
		{"exactly thirty minutes earlier", report("R2", "V2", 40.0, -73.0, t0.Add(-30*time.Minute)), true},
		{"thirty minutes and a second", report("R2", "V2", 40.0, -73.0, t0.Add(30*time.Minute+time.Second)), false},
		{"about 440 m north", report("R2", "V2", 40.004, -73.0, t0), true},
		{"about 560 m north", report("R2", "V2", 40.005, -73.0, t0), false},
		{"same vehicle", report("R2", "V1", 40.0, -73.0, t0), false},
		{"same report id", report("R1", "V2", 40.0, -73.0, t0), false},
		{"different event type", func() types.Report {
			r := report("R2", "V2", 40.0, -73.0, t0)
			r.EventType = "CONGESTION"
			return r
		}(), false},
		{"nan latitude", report("R2", "V2", math.NaN(), -73.0, t0), false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Corroborates(base, tc.other))
			assert.Equal(t, tc.want, Corroborates(tc.other, base))
		})
	}
}

func genReport(t *rapid.T, label string) types.Report {
	return types.Report{
		ReportID:  rapid.StringMatching(`R[0-3]`).Draw(t, label+"-id").(string),
		VehicleID: rapid.StringMatching(`V[0-3]`).Draw(t, label+"-vehicle").(string),
		EventType: rapid.StringMatching(`(ACCIDENT|HAZARD)`).Draw(t, label+"-type").(string),
		Latitude:  40 + rapid.Float64Range(-0.01, 0.01).Draw(t, label+"-lat").(float64),
		Longitude: -73 + rapid.Float64Range(-0.01, 0.01).Draw(t, label+"-lon").(float64),
		TimeStamp: t0.Add(time.Duration(rapid.IntRange(-3600, 3600).Draw(t, label+"-sec").(int)) * time.Second),
		Status:    types.StatusPending,
	}
}

func TestCorroboratesSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genReport(t, "a")
		b := genReport(t, "b")
		if Corroborates(a, b) != Corroborates(b, a) {
			t.Fatalf("asymmetric: %+v %+v", a, b)
		}
	})
}

func TestNeverCorroboratesSelfOrSameVehicle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genReport(t, "a")
		if Corroborates(a, a) {
			t.Fatalf("report corroborates itself: %+v", a)
		}
		b := genReport(t, "b")
		b.VehicleID = a.VehicleID
		if Corroborates(a, b) {
			t.Fatalf("same-vehicle corroboration: %+v %+v", a, b)
		}
	})
}
