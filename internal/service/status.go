package service

// Status is the instantaneous state of an OS service.
type Status int

const (
	Unknown Status = iota
	Stopped
	StartPending
	StopPending
	Running
	ContinuePending
	PausePending
	Paused
)

var statusNames = [...]string{
	Unknown:         "Unknown",
	Stopped:         "Stopped",
	StartPending:    "StartPending",
	StopPending:     "StopPending",
	Running:         "Running",
	ContinuePending: "ContinuePending",
	PausePending:    "PausePending",
	Paused:          "Paused",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return statusNames[Unknown]
	}
	return statusNames[s]
}
