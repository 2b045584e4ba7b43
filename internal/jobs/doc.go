// Package jobs runs workbook analyses asynchronously: an in-memory store, a
// fixed worker pool consuming a bounded queue, and per-job subscriptions that
// feed status streaming. Jobs carry the uploaded bytes in and the finished
// report out.
package jobs
