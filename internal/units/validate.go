package units

import (
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidInput marks caller mistakes that are rejected before any network call.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError describes a rejected argument.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

var entityIDPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// ValidateAccountID checks the shard.realm.num format, e.g. "0.0.123456".
func ValidateAccountID(id string) error {
	if !entityIDPattern.MatchString(id) {
		return &ValidationError{Field: "account id", Value: id, Reason: "expected shard.realm.num"}
	}
	return nil
}

// ValidateTokenID checks a token identifier. Tokens share the entity id
// format, so the shard.realm prefix is mandatory.
func ValidateTokenID(id string) error {
	if !entityIDPattern.MatchString(id) {
		return &ValidationError{Field: "token id", Value: id, Reason: "expected shard.realm.num prefix"}
	}
	return nil
}

// ValidateLimit enforces the inclusive [min, max] range for list sizes.
func ValidateLimit(limit, min, max int) error {
	if limit < min || limit > max {
		return &ValidationError{
			Field:  "limit",
			Value:  strconv.Itoa(limit),
			Reason: fmt.Sprintf("must be between %d and %d", min, max),
		}
	}
	return nil
}

// AccountIDToEVMAddress derives the long-zero EVM address of an entity:
// 4 bytes shard, 8 bytes realm, 8 bytes num.
func AccountIDToEVMAddress(id string) (common.Address, error) {
	parts := entityIDPattern.FindStringSubmatch(id)
	if parts == nil {
		return common.Address{}, &ValidationError{Field: "account id", Value: id, Reason: "expected shard.realm.num"}
	}

	shard, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return common.Address{}, &ValidationError{Field: "account id", Value: id, Reason: "shard out of range"}
	}
	realm, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return common.Address{}, &ValidationError{Field: "account id", Value: id, Reason: "realm out of range"}
	}
	num, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return common.Address{}, &ValidationError{Field: "account id", Value: id, Reason: "num out of range"}
	}

	var raw [common.AddressLength]byte
	binary.BigEndian.PutUint32(raw[0:4], uint32(shard))
	binary.BigEndian.PutUint64(raw[4:12], realm)
	binary.BigEndian.PutUint64(raw[12:20], num)
	return common.BytesToAddress(raw[:]), nil
}

// IsEVMAddress reports whether s is a 20-byte hex address, with or without 0x.
func IsEVMAddress(s string) bool {
	return common.IsHexAddress(strings.TrimSpace(s))
}
