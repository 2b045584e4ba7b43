// Package http contains the chi HTTP handlers for the analysis API:
// synchronous workbook analysis, background job management with a
// WebSocket status stream, and health endpoints. Handlers translate
// errors through the shared RFC 7807 error handler.
package http
