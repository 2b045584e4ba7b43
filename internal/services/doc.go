// Package services implements the business logic layer between HTTP handlers
// and the analysis pipeline.
//
// Services follow these architectural principles:
//
//	1. Context propagation for cancellation and tracing
//	2. Dependency injection for loose coupling
//	3. Cross-cutting concerns (logging, metrics) handled here, not in handlers
//
// AnalysisService wraps the pipeline with timeouts, metrics, and the async
// job queue. HealthService reports liveness plus queue statistics.
package services
