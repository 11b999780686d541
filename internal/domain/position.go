package domain

// Position is an open holding in the virtual account. A position exists only
// while its quantity is above zero; selling a position down to zero removes it
// entirely rather than leaving a zero-quantity row behind.
type Position struct {
	Symbol       string
	Quantity     int
	AvgPrice     float64
	CurrentPrice float64
}

// MarketValue is the position valued at the last marked price.
func (p Position) MarketValue() float64 {
	return float64(p.Quantity) * p.CurrentPrice
}

// CostBasis is the position valued at its volume-weighted average cost.
func (p Position) CostBasis() float64 {
	return float64(p.Quantity) * p.AvgPrice
}

// UnrealizedPnL is the mark-to-market gain or loss on the open position.
func (p Position) UnrealizedPnL() float64 {
	return p.MarketValue() - p.CostBasis()
}

// UnrealizedPnLPct is the unrealized gain or loss as a percentage of cost.
func (p Position) UnrealizedPnLPct() float64 {
	basis := p.CostBasis()
	if basis == 0 {
		return 0
	}
	return p.UnrealizedPnL() / basis * 100
}

// AccountSummary is a point-in-time valuation of the virtual account.
type AccountSummary struct {
	InitialCapital float64
	Cash           float64
	MarketValue    float64
	TotalEquity    float64
	TotalPnL       float64
	TotalPnLPct    float64
	NumPositions   int
	NumTrades      int
}
