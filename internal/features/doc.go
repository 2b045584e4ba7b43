// Package features derives model inputs from instrument price series.
//
// Each feature is a windowed transform over closing prices (moving average,
// momentum, volatility, RSI, returns, direction labels). Compute aligns all
// columns to the shortest one so every row of the resulting Set refers to the
// same trading day.
package features
