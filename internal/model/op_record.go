package model

import "encoding/json"

// Op names accepted in replay scripts.
const (
	OpFund            = "fund"
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
	OpSwap            = "swap"
)

// OpRecord is one scripted pool operation as a JSONL line. Amount fields are
// decimal strings so large balances survive JSON round-trips. Fields are
// op-specific; unused ones stay empty.
type OpRecord struct {
	Op     string `json:"op"`
	Sender string `json:"sender"`

	// fund
	Asset  string `json:"asset,omitempty"`
	Amount string `json:"amount,omitempty"`

	// add_liquidity / remove_liquidity
	AssetA  string `json:"asset_a,omitempty"`
	AssetB  string `json:"asset_b,omitempty"`
	AmountA string `json:"amount_a,omitempty"`
	AmountB string `json:"amount_b,omitempty"`
	MinA    string `json:"min_a,omitempty"`
	MinB    string `json:"min_b,omitempty"`
	Shares  string `json:"shares,omitempty"`

	// swap
	AssetIn  string `json:"asset_in,omitempty"`
	AssetOut string `json:"asset_out,omitempty"`
	AmountIn string `json:"amount_in,omitempty"`
	MinOut   string `json:"min_out,omitempty"`

	Recipient string `json:"recipient,omitempty"`
	Deadline  int64  `json:"deadline,omitempty"`
}

// MarshalJSON ensures OpRecord is encoded with stable field names.
func (r OpRecord) MarshalJSON() ([]byte, error) {
	type Alias OpRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes an OpRecord from JSON.
func (r *OpRecord) UnmarshalJSON(data []byte) error {
	type Alias OpRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = OpRecord(a)
	return nil
}
