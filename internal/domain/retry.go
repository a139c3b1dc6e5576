package domain

import "time"

// TaskState tracks one grading task through the unified state machine.
// Every strategy drives tasks through the same transitions; strategies that
// do not retry simply run with MaxRetries=0.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskInFlight  TaskState = "in_flight"
	TaskRetrying  TaskState = "retrying"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// RetryConfig defines the backoff behavior of a grading task. The delay for
// attempt n is min(MaxDelay, InitialDelay * Multiplier^n), with optional
// jitter to avoid thundering herds.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryConfig returns the retry policy used by the bounded strategy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// NoRetry disables retries while keeping the shared state machine.
func NoRetry() RetryConfig {
	return RetryConfig{MaxRetries: 0, InitialDelay: 0, MaxDelay: 0, Multiplier: 1.0}
}
