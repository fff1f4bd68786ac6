package domain

// AggregateStats holds process-lifetime counters maintained by the pipeline.
// All values reset on restart; there is no persistence of these totals.
type AggregateStats struct {
	TradesProcessed int64   // trades accepted past extraction and dedup
	BaseVolume      float64 // total base-asset volume actually notified
	LastHolderCount int     // most recent successful holder-count lookup
	StartedAt       int64   // Unix timestamp in seconds of pipeline start
}

// WindowSummary aggregates the trades of one batching bucket for a single
// summary notification. Corresponds to window_stats table in ClickHouse.
type WindowSummary struct {
	Bucket        int64          // bucket index: floor(unix seconds / window seconds)
	WindowStart   int64          // Unix timestamp in seconds of bucket start
	WindowSeconds int            // configured window length
	Count         int            // trades in the bucket
	BuyCount      int            // buy-side trades
	SellCount     int            // sell-side trades
	BaseVolume    float64        // summed base-asset amount
	TokenVolume   float64        // summed tracked-token amount
	LargeCount    int            // trades flagged as large
	Preview       []*TradeRecord // first trades of the bucket, capped
	Omitted       int            // trades beyond the preview cap
}
