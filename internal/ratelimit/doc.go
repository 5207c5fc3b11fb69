// Package ratelimit implements sliding-window-log request admission.
//
// WindowStore owns per-key event timestamp history and the atomic
// check-and-record primitive; AdmissionController turns a store sample into an
// allow/deny decision with retry metadata; Limiter is the Echo middleware that
// derives keys from caller identity and action class. State is process-local:
// multi-node deployments get per-node quotas, which is the accepted trade-off.
package ratelimit
