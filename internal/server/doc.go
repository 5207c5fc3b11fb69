// Package server exposes the platform over HTTP: routing, authentication,
// admission control wiring, and the JSON handlers.
package server
