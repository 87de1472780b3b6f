package errorutil

import "errors"

// ErrDataIntegrity is a base error type to use for failures that are due to
// unrecoverable data integrity issues, such as a malformed capture.
var ErrDataIntegrity = errors.New("data integrity error")
