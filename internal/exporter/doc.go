// Package exporter writes analysis reports to disk in three formats:
//
// ExportReportJSON: the lossless per-file report, indented JSON.
//
// CSVWriter: flat per-instrument summaries with UTF-8 BOM for Excel
// compatibility.
//
// WorkbookExporter: a consolidated xlsx document with one sheet per analyzed
// source file plus a combined summary sheet.
package exporter
