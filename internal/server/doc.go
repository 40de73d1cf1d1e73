// Package server runs the reference sync server.
//
// It owns the HTTP listener lifecycle: startup, signal handling and graceful
// shutdown bounded by the configured request timeout.
package server
