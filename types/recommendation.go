package types

import "time"

// Recommendation labels.
const (
	LikelyValid = "LIKELY VALID"
	LikelyFalse = "LIKELY FALSE"
	Neutral     = "NEUTRAL"
)

// RecommendationNote is attached to every recommendation.
const RecommendationNote = "RSU has final authority - this is only a recommendation"

// Recommendation is advisory output for the deciding authority. It never
// binds the decision.
type Recommendation struct {
	Recommendation string   `json:"recommendation"`
	Confidence     string   `json:"confidence"`
	Score          int      `json:"score"`
	Reasons        []string `json:"reasons"`
	Note           string   `json:"note"`
}

// CorroboratingDetail describes one corroborating report together with the
// standing of the vehicle that submitted it.
type CorroboratingDetail struct {
	ReportID            string       `json:"reportId"`
	VehicleID           string       `json:"vehicleId"`
	VehicleReputation   int64        `json:"vehicleReputation"`
	VehicleFalseReports int64        `json:"vehicleFalseReports"`
	Timestamp           time.Time    `json:"timestamp"`
	Status              ReportStatus `json:"status"`
}

// Corroboration groups the corroborating reports of a report.
type Corroboration struct {
	Count   int                   `json:"count"`
	Details []CorroboratingDetail `json:"details"`
}

// ValidationInfo is everything an authority needs to decide on a report.
type ValidationInfo struct {
	Report         Report         `json:"report"`
	VehicleInfo    Vehicle        `json:"vehicleInfo"`
	Corroboration  Corroboration  `json:"corroboration"`
	Recommendation Recommendation `json:"recommendation"`
}
