// Package timeouts collects the deadlines used across services.
package timeouts

import "time"

const (
	// SessionCheck bounds verifying the organiser's session.
	SessionCheck = 5 * time.Second
	// Insert bounds one backend insert.
	Insert = 10 * time.Second
	// FunctionCall bounds one call to a functions endpoint.
	FunctionCall = 30 * time.Second
	// Provider bounds one upstream LLM or photo API request.
	Provider = 20 * time.Second

	ReadHeader = 5 * time.Second
	Shutdown   = 10 * time.Second

	// DispatchPoll is how often due checkpoints are looked up.
	DispatchPoll = 30 * time.Second
)
