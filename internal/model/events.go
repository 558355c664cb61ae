package model

import "encoding/json"

// Event names emitted by the pool engine.
const (
	EventLiquidityAdded   = "liquidity_added"
	EventLiquidityRemoved = "liquidity_removed"
	EventTokensSwapped    = "tokens_swapped"
)

// Event is the envelope for a pool notification, suitable for JSONL storage.
type Event struct {
	Name      string          `json:"name"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent wraps a payload into an Event envelope.
func NewEvent(name string, timestamp int64, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Timestamp: timestamp, Payload: data}, nil
}

// LiquidityAddedData is the liquidity_added event payload. Amounts are in
// canonical asset0/asset1 order, decimal-encoded.
type LiquidityAddedData struct {
	Provider     string `json:"provider"`
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	SharesMinted string `json:"shares_minted"`
}

// LiquidityRemovedData is the liquidity_removed event payload.
type LiquidityRemovedData struct {
	Provider     string `json:"provider"`
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	SharesBurned string `json:"shares_burned"`
}

// TokensSwappedData is the tokens_swapped event payload.
type TokensSwappedData struct {
	Swapper   string `json:"swapper"`
	AssetIn   string `json:"asset_in"`
	AssetOut  string `json:"asset_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
}
