package eventstream

import "errors"

// ErrNilSettledEvent indicates a nil settle event payload was provided to a
// publisher.
var ErrNilSettledEvent = errors.New("nil settled event")
