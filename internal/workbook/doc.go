// Package workbook parses spreadsheet workbooks into canonical per-instrument
// time series. One sheet maps to one instrument; the sheet name is the ticker.
//
// The loader tolerates the layout drift found in real-world workbooks: column
// headers are resolved through configurable aliases (Spanish and English by
// default), dates are coerced from several textual layouts plus raw Excel
// serial numbers, and rows that cannot be parsed are dropped and counted
// rather than failing the sheet, up to a configured fraction.
package workbook
