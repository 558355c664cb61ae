package pool

import "errors"

var (
	// ErrInvalidAsset means the supplied asset identifiers do not match the
	// pool's configured pair.
	ErrInvalidAsset = errors.New("asset does not match pool pair")

	// ErrInvalidArgument covers zero or negative amounts, a zero recipient,
	// and a zero burn amount.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrExpired means the ambient clock passed the supplied deadline before
	// the operation began.
	ErrExpired = errors.New("deadline expired")

	// ErrSlippageExceeded means a computed amount fell below the caller's
	// minimum, or deposit proportions did not match reserves exactly.
	ErrSlippageExceeded = errors.New("slippage exceeded")

	// ErrInsufficientBalance means the caller's share balance is below the
	// requested burn, or a reserve cannot cover the operation.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDegenerateLiquidity means the computed minted or withdrawn amount
	// would be zero.
	ErrDegenerateLiquidity = errors.New("degenerate liquidity")

	// ErrTransferFailed propagates a rejection from the asset ledger.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrReentrantCall means a state-modifying call tried to enter while
	// another was in flight on the same pool.
	ErrReentrantCall = errors.New("reentrant call rejected")
)
