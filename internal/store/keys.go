package store

import (
	"github.com/google/orderedcode"
)

const (
	// prefixes are unique across the application db
	prefixAppState      = int64(0)
	prefixRegistry      = int64(1)
	prefixVehicle       = int64(2)
	prefixReport        = int64(3)
	prefixPending       = int64(4)
	prefixCorroboration = int64(5)
)

// AppStateKey holds the committed height and app hash.
func AppStateKey() []byte {
	return mustEncode(prefixAppState)
}

// RegistryKey holds the singleton RSU registry.
func RegistryKey() []byte {
	return mustEncode(prefixRegistry)
}

// VehicleKey holds a vehicle record.
func VehicleKey(vehicleID string) []byte {
	return mustEncode(prefixVehicle, vehicleID)
}

// ReportKey holds a report record.
func ReportKey(reportID string) []byte {
	return mustEncode(prefixReport, reportID)
}

// ReportRange covers every report record.
func ReportRange() (start, end []byte) {
	return mustEncode(prefixReport), mustEncode(prefixReport + 1)
}

// PendingKey marks a report as awaiting adjudication.
func PendingKey(reportID string) []byte {
	return mustEncode(prefixPending, reportID)
}

// PendingRange covers the pending-report index.
func PendingRange() (start, end []byte) {
	return mustEncode(prefixPending), mustEncode(prefixPending + 1)
}

// CorroborationKey indexes a report by event type and time bucket.
func CorroborationKey(eventType string, bucket int64, reportID string) []byte {
	return mustEncode(prefixCorroboration, eventType, bucket, reportID)
}

// CorroborationRange covers the index entries of eventType in buckets
// [from, to], inclusive.
func CorroborationRange(eventType string, from, to int64) (start, end []byte) {
	return mustEncode(prefixCorroboration, eventType, from),
		mustEncode(prefixCorroboration, eventType, to+1)
}

func mustEncode(items ...interface{}) []byte {
	key, err := orderedcode.Append(nil, items...)
	if err != nil {
		panic(err)
	}
	return key
}
