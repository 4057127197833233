package models

import "time"

type ProcessingTimings struct {
	RequestID string
	Decode    time.Duration
	Resize    time.Duration
	Patch     time.Duration
	Composite time.Duration
	Encode    time.Duration
	Total     time.Duration
}
