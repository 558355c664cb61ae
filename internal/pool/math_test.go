package pool

import (
	"math/big"
	"testing"
)

func TestGetAmountOut(t *testing.T) {
	// reserves 1000 : 1000, amountIn 100
	// amountInWithFee = floor(100*997/1000) = 99
	// amountOut = floor(99*1000/(1000+99)) = floor(99000/1099) = 90
	out := GetAmountOut(big.NewInt(100), big.NewInt(1000), big.NewInt(1000))
	if out.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("amountOut mismatch: got %s want 90", out)
	}
}

func TestGetAmountOutCases(t *testing.T) {
	cases := []struct {
		name       string
		amountIn   int64
		reserveIn  int64
		reserveOut int64
		want       int64
	}{
		{"tiny input rounds to zero fee input", 1, 1000, 1000, 0},
		{"small input", 10, 1000, 1000, 8},
		{"large input", 1000, 1000, 1000, 499},
		{"asymmetric reserves", 100, 1000, 5000, 450},
		{"zero denominator", 1, 0, 1000, 0},
	}

	for _, tc := range cases {
		out := GetAmountOut(big.NewInt(tc.amountIn), big.NewInt(tc.reserveIn), big.NewInt(tc.reserveOut))
		if out.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("%s: got %s want %d", tc.name, out, tc.want)
		}
	}
}

func TestGetAmountOutDoesNotMutateInputs(t *testing.T) {
	amountIn := big.NewInt(100)
	reserveIn := big.NewInt(1000)
	reserveOut := big.NewInt(1000)

	GetAmountOut(amountIn, reserveIn, reserveOut)

	if amountIn.Cmp(big.NewInt(100)) != 0 || reserveIn.Cmp(big.NewInt(1000)) != 0 || reserveOut.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("inputs mutated: %s %s %s", amountIn, reserveIn, reserveOut)
	}
}

func TestGetAmountOutWideArithmetic(t *testing.T) {
	// Balances near the full 256-bit range must not overflow intermediates.
	big1 := new(big.Int).Lsh(big.NewInt(1), 120)
	big2 := new(big.Int).Lsh(big.NewInt(1), 121)
	in := new(big.Int).Lsh(big.NewInt(1), 100)

	out := GetAmountOut(in, big1, big2)
	if out.Sign() <= 0 {
		t.Fatalf("expected positive output, got %s", out)
	}
	if out.Cmp(big2) >= 0 {
		t.Fatalf("output %s exceeds reserve %s", out, big2)
	}
}

func TestRetainedFee(t *testing.T) {
	cases := []struct {
		amountIn int64
		want     int64
	}{
		{100, 1},
		{1000, 3},
		{1, 1},   // floor(997/1000) = 0, whole input retained
		{333, 1}, // floor(333*997/1000) = 332
	}

	for _, tc := range cases {
		fee := RetainedFee(big.NewInt(tc.amountIn))
		if fee.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("fee for %d: got %s want %d", tc.amountIn, fee, tc.want)
		}
	}
}

func TestSpotPrice(t *testing.T) {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	price := SpotPrice(big.NewInt(1000), big.NewInt(2000))
	want := new(big.Int).Mul(big.NewInt(2), scale)
	if price.Cmp(want) != 0 {
		t.Fatalf("price mismatch: got %s want %s", price, want)
	}

	if price := SpotPrice(big.NewInt(0), big.NewInt(2000)); price.Sign() != 0 {
		t.Fatalf("expected zero price for empty ref reserve, got %s", price)
	}
	if price := SpotPrice(big.NewInt(1000), big.NewInt(0)); price.Sign() != 0 {
		t.Fatalf("expected zero price for empty quote reserve, got %s", price)
	}

	// Truncation: 3 quote per 7 ref.
	price = SpotPrice(big.NewInt(7), big.NewInt(3))
	want = new(big.Int).Mul(big.NewInt(3), scale)
	want.Quo(want, big.NewInt(7))
	if price.Cmp(want) != 0 {
		t.Fatalf("truncated price mismatch: got %s want %s", price, want)
	}
}

func TestFloorSqrt(t *testing.T) {
	cases := []struct {
		n    int64
		want int64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{4, 2},
		{99, 9},
		{100, 10},
		{1_000_000, 1000},
	}

	for _, tc := range cases {
		got := floorSqrt(big.NewInt(tc.n))
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("sqrt(%d): got %s want %d", tc.n, got, tc.want)
		}
	}
}

func BenchmarkGetAmountOut(b *testing.B) {
	amountIn := new(big.Int).SetUint64(1_000_000)
	reserveIn := new(big.Int).SetUint64(13_451_234_567_890)
	reserveOut := new(big.Int).SetUint64(98_765_432_109_876)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GetAmountOut(amountIn, reserveIn, reserveOut)
	}
}
