package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// TxType names the operation carried by a transaction.
type TxType string

const (
	TxInitAuthorities TxType = "init_authorities"
	TxRegisterRSU     TxType = "register_rsu"
	TxDeactivateRSU   TxType = "deactivate_rsu"
	TxRegisterVehicle TxType = "register_vehicle"
	TxSubmitReport    TxType = "submit_report"
	TxValidateReport  TxType = "validate_report"
)

// legacy operation names still accepted on the wire
var txAliases = map[TxType]TxType{
	"add_authority":                TxRegisterRSU,
	"remove_authority":             TxDeactivateRSU,
	"validate_report_by_authority": TxValidateReport,
	"verify_report":                TxValidateReport,
	"review_pending_report":        TxValidateReport,
}

// Canonical resolves legacy aliases to the operation they stand for.
func (t TxType) Canonical() TxType {
	if c, ok := txAliases[t]; ok {
		return c
	}
	return t
}

// Tx is the transaction envelope. Payload is decoded according to Type.
type Tx struct {
	Type    TxType          `json:"type"`
	Caller  Caller          `json:"caller"`
	Nonce   string          `json:"nonce,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Msg is an operation payload.
type Msg interface {
	ValidateBasic() error
}

// InitAuthoritiesMsg creates the RSU registry. It carries no fields.
type InitAuthoritiesMsg struct{}

func (InitAuthoritiesMsg) ValidateBasic() error { return nil }

// RegisterRSUMsg registers a new authority.
type RegisterRSUMsg struct {
	RSUID     string  `json:"rsuId"`
	MSPID     string  `json:"mspId"`
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (m RegisterRSUMsg) ValidateBasic() error {
	if m.RSUID == "" {
		return fmt.Errorf("%w: rsuId is required", ErrInvalidTx)
	}
	return validateCoordinates(m.Latitude, m.Longitude)
}

// DeactivateRSUMsg deactivates an authority.
type DeactivateRSUMsg struct {
	RSUID string `json:"rsuId"`
}

func (m DeactivateRSUMsg) ValidateBasic() error {
	if m.RSUID == "" {
		return fmt.Errorf("%w: rsuId is required", ErrInvalidTx)
	}
	return nil
}

// RegisterVehicleMsg registers a vehicle with the initial reputation.
type RegisterVehicleMsg struct {
	VehicleID string `json:"vehicleId"`
}

func (m RegisterVehicleMsg) ValidateBasic() error {
	if m.VehicleID == "" {
		return fmt.Errorf("%w: vehicleId is required", ErrInvalidTx)
	}
	return nil
}

// SubmitReportMsg submits a new event report.
type SubmitReportMsg struct {
	ReportID  string  `json:"reportId"`
	VehicleID string  `json:"vehicleId"`
	EventType string  `json:"eventType"`
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (m SubmitReportMsg) ValidateBasic() error {
	switch {
	case m.ReportID == "":
		return fmt.Errorf("%w: reportId is required", ErrInvalidTx)
	case m.VehicleID == "":
		return fmt.Errorf("%w: vehicleId is required", ErrInvalidTx)
	case m.EventType == "":
		return fmt.Errorf("%w: eventType is required", ErrInvalidTx)
	}
	return validateCoordinates(m.Latitude, m.Longitude)
}

// ValidateReportMsg carries an authority decision. IsValid must be present;
// a missing decision is never read as a rejection.
type ValidateReportMsg struct {
	ReportID string `json:"reportId"`
	IsValid  *bool  `json:"isValid"`
}

func (m ValidateReportMsg) ValidateBasic() error {
	if m.ReportID == "" {
		return fmt.Errorf("%w: reportId is required", ErrInvalidTx)
	}
	if m.IsValid == nil {
		return fmt.Errorf("%w: isValid is required", ErrInvalidTx)
	}
	return nil
}

// NaN and infinities cannot be stored as JSON numbers.
func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return fmt.Errorf("%w: coordinates must be finite", ErrInvalidTx)
	}
	return nil
}

// DecodeTx parses a transaction envelope and its payload and runs stateless
// validation. Unknown payload fields are rejected.
func DecodeTx(bz []byte) (Tx, Msg, error) {
	var tx Tx
	if err := json.Unmarshal(bz, &tx); err != nil {
		return Tx{}, nil, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	tx.Type = tx.Type.Canonical()

	var msg Msg
	switch tx.Type {
	case TxInitAuthorities:
		msg = &InitAuthoritiesMsg{}
	case TxRegisterRSU:
		msg = &RegisterRSUMsg{}
	case TxDeactivateRSU:
		msg = &DeactivateRSUMsg{}
	case TxRegisterVehicle:
		msg = &RegisterVehicleMsg{}
	case TxSubmitReport:
		msg = &SubmitReportMsg{}
	case TxValidateReport:
		msg = &ValidateReportMsg{}
	default:
		return Tx{}, nil, fmt.Errorf("%w: unknown type %q", ErrInvalidTx, tx.Type)
	}

	if len(tx.Payload) > 0 {
		dec := json.NewDecoder(bytes.NewReader(tx.Payload))
		dec.DisallowUnknownFields()
		if err := dec.Decode(msg); err != nil {
			return Tx{}, nil, fmt.Errorf("%w: payload: %v", ErrInvalidTx, err)
		}
	}
	if err := msg.ValidateBasic(); err != nil {
		return Tx{}, nil, err
	}
	return tx, msg, nil
}

// EncodeTx builds the wire form of a transaction.
func EncodeTx(typ TxType, caller Caller, nonce string, msg Msg) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Tx{
		Type:    typ,
		Caller:  caller,
		Nonce:   nonce,
		Payload: payload,
	})
}
