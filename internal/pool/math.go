package pool

import "math/big"

// fee: 0.3% => multiplier 997/1000
var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)

	// priceScale is the 1e18 fixed-point scale for spot prices.
	priceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// GetAmountOut computes the swap output for amountIn against the given
// reserves under the constant-product formula with the fee retained in the
// pool:
//
//	amountInWithFee = floor(amountIn * 997 / 1000)
//	amountOut       = floor(amountInWithFee * reserveOut / (reserveIn + amountInWithFee))
//
// Returns 0 when the denominator would be zero. Inputs are not mutated.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	amountInWithFee := new(big.Int).Mul(amountIn, feeMul)
	amountInWithFee.Quo(amountInWithFee, feeDen)

	denominator := new(big.Int).Add(reserveIn, amountInWithFee)
	if denominator.Sign() == 0 {
		return new(big.Int)
	}

	out := new(big.Int).Mul(amountInWithFee, reserveOut)
	return out.Quo(out, denominator)
}

// RetainedFee returns the part of amountIn kept by the pool on a swap,
// amountIn - floor(amountIn * 997 / 1000).
func RetainedFee(amountIn *big.Int) *big.Int {
	withFee := new(big.Int).Mul(amountIn, feeMul)
	withFee.Quo(withFee, feeDen)
	return new(big.Int).Sub(amountIn, withFee)
}

// SpotPrice returns floor(reserveQuote * 1e18 / reserveRef): quote-asset
// units per 1.0 of the reference asset, scaled by 1e18. Returns 0 when
// either reserve is zero.
func SpotPrice(reserveRef, reserveQuote *big.Int) *big.Int {
	if reserveRef.Sign() == 0 || reserveQuote.Sign() == 0 {
		return new(big.Int)
	}
	price := new(big.Int).Mul(reserveQuote, priceScale)
	return price.Quo(price, reserveRef)
}

// floorSqrt returns the integer square root of n, truncated.
func floorSqrt(n *big.Int) *big.Int {
	return new(big.Int).Sqrt(n)
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
