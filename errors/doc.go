// Package errors provides the structured error type shared by every vidprofile
// package. An AppError carries a machine-readable code, a retryable flag and
// free-form details; the code drives provider fallback decisions.
package errors
