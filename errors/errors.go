package errors

import "fmt"

var (
	ErrUnauthenticated  = fmt.Errorf("no resolvable identity")
	ErrInvalidRequest   = fmt.Errorf("invalid request")
	ErrInvalidChannel   = fmt.Errorf("invalid channel name")
	ErrNotParticipant   = fmt.Errorf("caller is not a channel participant")
	ErrMessageNotFound  = fmt.Errorf("message not found")
	ErrEmptyContent     = fmt.Errorf("message content is empty")
	ErrHyphenIdentifier = fmt.Errorf("user identifier contains a hyphen")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
)
