// Package pipeline composes the analysis stages into a single entry point:
// workbook bytes in, ordered report out. It owns the partial-failure policy
// (bad instruments degrade, bad workbooks abort) and the final grade
// assignment across instruments.
package pipeline
