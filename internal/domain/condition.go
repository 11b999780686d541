package domain

// Condition classification tags. Only price-triggered entries and fixed
// stop/target exits are implemented; the tags exist so persisted plans can
// grow new kinds without a schema change.
const (
	EntryKindPrice = "price"
	ExitKindFixed  = "fixed"
)

// TradingCondition holds the entry/stop/target thresholds and the current
// holding state for one symbol. At most one condition exists per symbol, and
// its Quantity mirrors the virtual account's position size for that symbol.
type TradingCondition struct {
	Symbol     string
	Name       string
	EntryPrice *float64
	StopLoss   *float64
	TakeProfit *float64
	Quantity   int
	PlanID     *int64
	Starred    bool
	EntryKind  string
	ExitKind   string
}

// Signal is the outcome of evaluating a condition against a price.
type Signal string

const (
	SignalNone Signal = ""
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

// ExitReason identifies which threshold produced a sell signal.
type ExitReason string

const (
	ExitReasonNone       ExitReason = ""
	ExitReasonStopLoss   ExitReason = "stop_loss"
	ExitReasonTakeProfit ExitReason = "take_profit"
)
