package domain

import "time"

// AccountSnapshot is an immutable equity-curve sample written once per tick
// after mark-to-market.
type AccountSnapshot struct {
	Cash        float64
	MarketValue float64
	TotalEquity float64
	TotalPnL    float64
	TotalPnLPct float64
	Timestamp   time.Time
}

// PositionSnapshot is one row of the per-tick position time series, written
// for every open symbol after mark-to-market.
type PositionSnapshot struct {
	Symbol           string
	Quantity         int
	AvgPrice         float64
	CurrentPrice     float64
	UnrealizedPnL    float64
	UnrealizedPnLPct float64
	Timestamp        time.Time
}

// EquityPoint is a single sample of the equity curve.
type EquityPoint struct {
	Timestamp   time.Time
	TotalEquity float64
}

// LogType classifies a monitor log entry.
type LogType string

const (
	LogTypeInfo    LogType = "info"
	LogTypeSuccess LogType = "success"
	LogTypeWarning LogType = "warning"
	LogTypeError   LogType = "error"
	LogTypeTrade   LogType = "trade"
)

// MonitorLogEntry is one line of the human-readable audit trail the monitor
// writes as it evaluates symbols and executes trades.
type MonitorLogEntry struct {
	Message   string
	Type      LogType
	Timestamp time.Time
}
