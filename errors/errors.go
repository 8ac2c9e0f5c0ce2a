package errors

import "fmt"

var (
	ErrAccessDenied  = fmt.Errorf("access denied")
	ErrNotFound      = fmt.Errorf("not found")
	ErrInvalidThread = fmt.Errorf("invalid thread reference")
	ErrUnknownEvent  = fmt.Errorf("unknown event kind")
)
