package protocol

const (
	// Request shape and content validation.
	ErrBadRequest = "E_BAD_REQUEST"

	// Run lifecycle.
	ErrRunNotFound  = "E_RUN_NOT_FOUND"
	ErrRunCompleted = "E_RUN_COMPLETED"
	ErrBadRound     = "E_BAD_ROUND"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:   {},
	ErrRunNotFound:  {},
	ErrRunCompleted: {},
	ErrBadRound:     {},
	ErrInternal:     {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
