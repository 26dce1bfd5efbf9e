package types

// InitialReputation is the reputation every vehicle starts with.
const InitialReputation = 50

// Vehicle is the per-vehicle reputation record.
//
// Reputation is deliberately unbounded: adjudications add or subtract a fixed
// amount and no clamp is applied in either direction.
type Vehicle struct {
	VehicleID    string `json:"vehicleId"`
	Reputation   int64  `json:"reputation"`
	TotalReports int64  `json:"totalReports"`
	FalseReports int64  `json:"falseReports"`
}

// NewVehicle returns a freshly registered vehicle.
func NewVehicle(vehicleID string) Vehicle {
	return Vehicle{
		VehicleID:  vehicleID,
		Reputation: InitialReputation,
	}
}
