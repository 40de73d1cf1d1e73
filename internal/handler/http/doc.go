// Package http implements the REST transport of the reference sync server.
//
// Requests pass through panic recovery, trace id propagation, access
// logging, request metrics and, for the sync and entity routes, bearer token
// authentication before they reach the entity service.
package http
