package chain

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for strings outside both address families.
var ErrInvalidAddress = errors.New("invalid token address")

// Family is an address encoding accepted by the security API.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyHex            // 0x followed by 40 hex digits (EVM, Tron hex)
	FamilyBase58         // 32..44 base58 characters (Solana)
)

func (f Family) String() string {
	switch f {
	case FamilyHex:
		return "hex"
	case FamilyBase58:
		return "base58"
	default:
		return "unknown"
	}
}

const (
	base58MinLen = 32
	base58MaxLen = 44
)

// Classify reports which family addr belongs to. Chain is not considered.
func Classify(addr string) Family {
	switch {
	case isHexAddress(addr):
		return FamilyHex
	case isBase58Address(addr):
		return FamilyBase58
	default:
		return FamilyUnknown
	}
}

// IsValidAddress reports whether addr belongs to either family.
func IsValidAddress(addr string) bool {
	return Classify(addr) != FamilyUnknown
}

// DisplayAddress returns the EIP-55 form of hex addresses and addr unchanged otherwise.
func DisplayAddress(addr string) string {
	if isHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return addr
}

func isHexAddress(addr string) bool {
	// common.IsHexAddress also accepts "0X" and unprefixed input.
	if !strings.HasPrefix(addr, "0x") {
		return false
	}
	return common.IsHexAddress(addr)
}

func isBase58Address(addr string) bool {
	if len(addr) < base58MinLen || len(addr) > base58MaxLen {
		return false
	}
	_, err := base58.Decode(addr)
	return err == nil
}
