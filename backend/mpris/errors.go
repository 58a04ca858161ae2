package mpris

import "fmt"

// PlayerNotFoundError indicates that a player is not tracked
type PlayerNotFoundError struct {
	BusName string
}

func (e *PlayerNotFoundError) Error() string {
	return "player not found: " + e.BusName
}

// InvalidBusNameError indicates that a busName is invalid
type InvalidBusNameError struct {
	BusName string
	Reason  string
}

func (e *InvalidBusNameError) Error() string {
	return "invalid player name: " + e.Reason
}

// ValidationError indicates that a parameter is invalid
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// CallError wraps a failed method call or property write against a player,
// identifying the method and target name.
type CallError struct {
	BusName string
	Method  string
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s failed on %s: %v", e.Method, e.BusName, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
