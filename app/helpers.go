package app

import (
	"github.com/google/uuid"

	"github.com/rsuchain/rsuchain/types"
)

// NewTx encodes msg as a transaction of type typ sent by caller. Each call
// gets a fresh nonce, so repeating an operation yields a distinct
// transaction hash.
func NewTx(typ types.TxType, caller types.Caller, msg types.Msg) ([]byte, error) {
	return types.EncodeTx(typ, caller, uuid.New().String(), msg)
}

// MustNewTx is NewTx that panics on error. Meant for tests and tooling.
func MustNewTx(typ types.TxType, caller types.Caller, msg types.Msg) []byte {
	bz, err := NewTx(typ, caller, msg)
	if err != nil {
		panic(err)
	}
	return bz
}
