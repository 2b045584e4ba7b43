// Package app provides application initialization and lifecycle management
// for the analysis web service. It wires configuration, logging, metrics,
// the background job queue, and the HTTP router together at startup.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and metrics
//	3. Create the job queue and services
//	4. Set up HTTP handlers and middleware
//	5. Configure and start the HTTP server
//	6. Set up graceful shutdown handlers
//
// # Usage
//
// The main entry point is typically:
//
//	app, err := app.NewApplication(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// SIGINT and SIGTERM trigger a graceful shutdown: active requests are
// completed, queued jobs are drained within the shutdown timeout, and the
// log file is flushed. Initialization errors are returned to the caller;
// the package never calls os.Exit() directly.
package app
