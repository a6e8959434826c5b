package panel

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned when a removal names an id that is not in
// the snapshot.
var ErrRecordNotFound = errors.New("record not found")

// FetchError reports that the snapshot could not be fetched from one of the
// external stores. The engine is left with an empty snapshot.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RemovalError reports that the external store rejected a removal. The
// snapshot is unchanged.
type RemovalError struct {
	ID  string
	Err error
}

func (e *RemovalError) Error() string {
	return fmt.Sprintf("remove record %s: %v", e.ID, e.Err)
}

func (e *RemovalError) Unwrap() error { return e.Err }
