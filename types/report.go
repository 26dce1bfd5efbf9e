package types

import "time"

// ReportStatus is the adjudication state of a report.
type ReportStatus string

const (
	StatusPending ReportStatus = "PENDING"
	StatusValid   ReportStatus = "VALID"
	StatusFalse   ReportStatus = "FALSE"
)

// IsTerminal reports whether no further transition is possible from s.
func (s ReportStatus) IsTerminal() bool {
	return s == StatusValid || s == StatusFalse
}

// Report is an event observation submitted by a vehicle.
//
// CorroboratingReports is computed once, when the report is created, and is
// never recomputed: reports submitted later are not linked back.
type Report struct {
	ReportID  string       `json:"reportId"`
	VehicleID string       `json:"vehicleId"`
	EventType string       `json:"eventType"`
	Location  string       `json:"location"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	TimeStamp time.Time    `json:"timeStamp"`
	Status    ReportStatus `json:"status"`

	CorroboratingReports []string `json:"corroboratingReports"`
	CorroborationCount   int      `json:"corroborationCount"`

	ValidatedBy         string     `json:"validatedBy,omitempty"`
	ValidatedByLocation string     `json:"validatedByLocation,omitempty"`
	ValidatedAt         *time.Time `json:"validatedAt,omitempty"`
	RejectedBy          string     `json:"rejectedBy,omitempty"`
	RejectedByLocation  string     `json:"rejectedByLocation,omitempty"`
	RejectedAt          *time.Time `json:"rejectedAt,omitempty"`
}

// NewPendingReport builds a report in the PENDING state with no
// corroboration data attached yet.
func NewPendingReport(reportID, vehicleID, eventType, location string, lat, lon float64, now time.Time) Report {
	return Report{
		ReportID:             reportID,
		VehicleID:            vehicleID,
		EventType:            eventType,
		Location:             location,
		Latitude:             lat,
		Longitude:            lon,
		TimeStamp:            now,
		Status:               StatusPending,
		CorroboratingReports: []string{},
	}
}

// DecidedBy returns the RSU that adjudicated the report, or "" while pending.
func (r Report) DecidedBy() string {
	switch r.Status {
	case StatusValid:
		return r.ValidatedBy
	case StatusFalse:
		return r.RejectedBy
	default:
		return ""
	}
}

// Adjudication is the record of one authority decision, emitted after the
// block containing it is committed.
type Adjudication struct {
	ReportID    string       `json:"reportId"`
	VehicleID   string       `json:"vehicleId"`
	EventType   string       `json:"eventType"`
	Status      ReportStatus `json:"status"`
	RSUID       string       `json:"rsuId"`
	RSULocation string       `json:"rsuLocation"`
	Reputation  int64        `json:"reputation"`
	DecidedAt   time.Time    `json:"decidedAt"`
	Height      int64        `json:"height"`
}
