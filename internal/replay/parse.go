package replay

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress converts a string address into common.Address.
func ParseAddress(field, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", field, input)
	}
	return common.HexToAddress(input), nil
}

// ParseAmount converts a decimal string into a non-negative big.Int.
func ParseAmount(field, input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("missing %s amount", field)
	}
	value, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s amount: %q", field, input)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative %s amount: %q", field, input)
	}
	return value, nil
}

// ParseOptionalAmount is ParseAmount with empty input meaning zero.
func ParseOptionalAmount(field, input string) (*big.Int, error) {
	if strings.TrimSpace(input) == "" {
		return new(big.Int), nil
	}
	return ParseAmount(field, input)
}
