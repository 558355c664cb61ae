package model

// PoolState is a serialized reserve/share snapshot for storage.
type PoolState struct {
	Asset0      string `json:"asset0"`
	Asset1      string `json:"asset1"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	TotalShares string `json:"total_shares"`
	UpdatedAt   string `json:"updated_at"`
}
