package calib

import "fmt"

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrHemisphere is returned when an event does not have its first hit in
// the left hemisphere and its second hit in the right one.
type ErrHemisphere struct {
	Entry int64
	Event EventRecord
}

func (e *ErrHemisphere) Error() string {
	return fmt.Sprintf("entry %d (run %d, evt %d): hemisphere assignment violated: IChanAbs240 = [%d %d], want [<%d >=%d]",
		e.Entry, e.Event.Run, e.Event.Evt, e.Event.Channel[0], e.Event.Channel[1],
		NChannelsPerHemisphere, NChannelsPerHemisphere)
}

// ErrFit represents a channel whose photopeak could not be resolved.
type ErrFit struct {
	Channel int
	Reason  string
	Err     error
}

func (e *ErrFit) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("channel %d: %s: %v", e.Channel, e.Reason, e.Err)
	}
	return fmt.Sprintf("channel %d: %s", e.Channel, e.Reason)
}

func (e *ErrFit) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}
