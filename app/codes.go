package app

import (
	"errors"

	"github.com/rsuchain/rsuchain/types"
)

// Codespace namespaces the response codes of this application.
const Codespace = "rsuchain"

// Response codes. Zero is success; every other value is stable across
// releases.
const (
	CodeTypeOK                 uint32 = 0
	CodeTypeEncodingError      uint32 = 1
	CodeTypeAlreadyInitialized uint32 = 2
	CodeTypeNotInitialized     uint32 = 3
	CodeTypeDuplicateRSU       uint32 = 4
	CodeTypeRSUNotFound        uint32 = 5
	CodeTypeUnauthorized       uint32 = 6
	CodeTypeDuplicateVehicle   uint32 = 7
	CodeTypeVehicleNotFound    uint32 = 8
	CodeTypeDuplicateReport    uint32 = 9
	CodeTypeReportNotFound     uint32 = 10
	CodeTypeAlreadyValidated   uint32 = 11
	CodeTypeUnknownPath        uint32 = 12
	CodeTypeInternalError      uint32 = 100
)

var errorCodes = []struct {
	err  error
	code uint32
}{
	{types.ErrInvalidTx, CodeTypeEncodingError},
	{types.ErrAlreadyInitialized, CodeTypeAlreadyInitialized},
	{types.ErrNotInitialized, CodeTypeNotInitialized},
	{types.ErrDuplicateRSU, CodeTypeDuplicateRSU},
	{types.ErrRSUNotFound, CodeTypeRSUNotFound},
	{types.ErrUnauthorized, CodeTypeUnauthorized},
	{types.ErrDuplicateVehicle, CodeTypeDuplicateVehicle},
	{types.ErrVehicleNotFound, CodeTypeVehicleNotFound},
	{types.ErrDuplicateReport, CodeTypeDuplicateReport},
	{types.ErrReportNotFound, CodeTypeReportNotFound},
	{types.ErrAlreadyValidated, CodeTypeAlreadyValidated},
	{errUnknownPath, CodeTypeUnknownPath},
}

// errorCode maps an error to its response code. Anything unrecognised is an
// internal error.
func errorCode(err error) uint32 {
	if err == nil {
		return CodeTypeOK
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeTypeInternalError
}
