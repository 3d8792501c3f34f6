package types

// Trade is a single price observation, timestamp is in unix seconds
type Trade struct {
	Price     float64 `json:"price"`
	Timestamp uint64  `json:"timestamp"`
}
