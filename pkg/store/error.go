package store

import "fmt"

// NotFoundError is returned when a session record doesn't exist.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "session not found"
	}
	return "session not found: " + e.ID
}

// ExistsError is returned when creating a record whose id is already taken.
type ExistsError struct {
	ID string
}

func (e ExistsError) Error() string {
	return "session already exists: " + e.ID
}

// ConflictError is returned when a save loses an optimistic-concurrency race.
// The caller is expected to re-read and retry; overwriting blindly would drop
// the other writer's update.
type ConflictError struct {
	ID       string
	Expected int
	Found    int
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("write conflict on session %s: version %d, stored %d",
		e.ID, e.Expected, e.Found)
}

// CorruptRecordError is returned when stored bytes fail to decode or
// validate. The payload is never partially applied.
type CorruptRecordError struct {
	ID  string
	Err error
}

func (e CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt session record %s: %v", e.ID, e.Err)
}

func (e CorruptRecordError) Unwrap() error {
	return e.Err
}

// InvalidIDError is returned for session ids that could escape the storage
// root or otherwise break addressing.
type InvalidIDError struct {
	ID string
}

func (e InvalidIDError) Error() string {
	return fmt.Sprintf("invalid session id %q", e.ID)
}
