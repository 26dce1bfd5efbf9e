package store

import (
	"encoding/json"
	"fmt"
)

// GetJSON loads the record at key into v. It reports false when the key is
// absent, leaving v untouched.
func GetJSON(r Reader, key []byte, v interface{}) (bool, error) {
	bz, err := r.Get(key)
	if err != nil {
		return false, err
	}
	if len(bz) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return false, fmt.Errorf("decode %X: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v at key.
func SetJSON(w KVStore, key []byte, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %X: %w", key, err)
	}
	return w.Set(key, bz)
}
