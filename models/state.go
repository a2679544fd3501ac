package models

import "time"

type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ChannelState is the tagged state of one channel. Result is set only when
// Succeeded and Message only when Failed.
type ChannelState struct {
	Status    Status
	Result    *AnalysisResult
	Message   string
	UpdatedAt time.Time
}

func Idle() ChannelState { return ChannelState{Status: StatusIdle} }

func Pending(at time.Time) ChannelState {
	return ChannelState{Status: StatusPending, UpdatedAt: at}
}

func Succeeded(result AnalysisResult, at time.Time) ChannelState {
	return ChannelState{Status: StatusSucceeded, Result: &result, UpdatedAt: at}
}

func Failed(message string, at time.Time) ChannelState {
	return ChannelState{Status: StatusFailed, Message: message, UpdatedAt: at}
}

func (s ChannelState) IsPending() bool   { return s.Status == StatusPending }
func (s ChannelState) IsSucceeded() bool { return s.Status == StatusSucceeded }
func (s ChannelState) IsFailed() bool    { return s.Status == StatusFailed }
