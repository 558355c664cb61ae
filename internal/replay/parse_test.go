package replay

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseAddress(t *testing.T) {
	want := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	got, err := ParseAddress("asset", "0x00000000000000000000000000000000000000aa")
	if err != nil {
		t.Fatalf("parse address: %v", err)
	}
	if got != want {
		t.Fatalf("address mismatch: %s", got.Hex())
	}

	got, err = ParseAddress("asset", "  0x00000000000000000000000000000000000000AA ")
	if err != nil {
		t.Fatalf("parse padded address: %v", err)
	}
	if got != want {
		t.Fatalf("padded address mismatch: %s", got.Hex())
	}

	for _, input := range []string{"", "0x123", "not-an-address", "0xzz000000000000000000000000000000000000aa"} {
		if _, err := ParseAddress("asset", input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("amount_in", "340282366920938463463374607431768211456")
	if err != nil {
		t.Fatalf("parse amount: %v", err)
	}
	want, _ := new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	if amount.Cmp(want) != 0 {
		t.Fatalf("amount mismatch: %s", amount)
	}

	if _, err := ParseAmount("amount_in", ""); err == nil {
		t.Fatal("expected error for empty amount")
	}
	if _, err := ParseAmount("amount_in", "-5"); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if _, err := ParseAmount("amount_in", "1.5"); err == nil {
		t.Fatal("expected error for fractional amount")
	}
}

func TestParseOptionalAmount(t *testing.T) {
	amount, err := ParseOptionalAmount("min_out", "")
	if err != nil {
		t.Fatalf("parse empty optional: %v", err)
	}
	if amount.Sign() != 0 {
		t.Fatalf("expected zero, got %s", amount)
	}

	amount, err = ParseOptionalAmount("min_out", "42")
	if err != nil {
		t.Fatalf("parse optional: %v", err)
	}
	if amount.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("amount mismatch: %s", amount)
	}

	if _, err := ParseOptionalAmount("min_out", "bogus"); err == nil {
		t.Fatal("expected error for malformed optional amount")
	}
}
