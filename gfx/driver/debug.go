package driver

import "strings"

type DebugSeverity uint32

const (
	SeverityVerbose DebugSeverity = 1 << iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

const AllSeverities = SeverityVerbose | SeverityInfo | SeverityWarning | SeverityError

func (s DebugSeverity) String() string {
	return flagString(uint32(s), []string{"verbose", "info", "warning", "error"})
}

type DebugMessageType uint32

const (
	MessageTypeGeneral DebugMessageType = 1 << iota
	MessageTypeValidation
	MessageTypePerformance
)

func (t DebugMessageType) String() string {
	return flagString(uint32(t), []string{"GENERAL", "VALIDATION", "PERFORMANCE"})
}

type DebugMessage struct {
	Severity DebugSeverity
	Type     DebugMessageType
	Message  string
}

// DebugCallback receives native diagnostics. The return value is handed back
// to the native API; true aborts the triggering call.
type DebugCallback func(msg DebugMessage) bool

type DebugMessengerCreateInfo struct {
	Severities DebugSeverity
	Types      DebugMessageType
	Callback   DebugCallback
}

type DebugMessenger interface {
	Destroy()
}

func flagString(v uint32, names []string) string {
	var parts []string
	for i, name := range names {
		if v&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
