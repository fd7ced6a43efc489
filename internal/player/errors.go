package player

// ErrorKind is the user-facing error taxonomy
type ErrorKind int

const (
	ErrNone ErrorKind = iota
	ErrUnsupported
	ErrNetworkFailure
	ErrUnknown
	ErrFullscreenDenied
	ErrOrientationUnsupported
)

// String returns the error kind name
func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrUnsupported:
		return "unsupported"
	case ErrNetworkFailure:
		return "network_failure"
	case ErrUnknown:
		return "unknown"
	case ErrFullscreenDenied:
		return "fullscreen_denied"
	case ErrOrientationUnsupported:
		return "orientation_unsupported"
	default:
		return "invalid"
	}
}

// Fatal reports whether the kind invalidates the active source
func (k ErrorKind) Fatal() bool {
	return k == ErrUnsupported || k == ErrNetworkFailure
}

// Message is the text shown on the error overlay
func (k ErrorKind) Message() string {
	switch k {
	case ErrUnsupported:
		return "The video format is not supported."
	case ErrNetworkFailure:
		return "The video could not be loaded. Check your connection."
	case ErrUnknown:
		return "Failed to load video. The video might be unavailable."
	default:
		return ""
	}
}

// ErrorKindFromCode maps a native media error code
func ErrorKindFromCode(code MediaErrorCode) ErrorKind {
	switch code {
	case MediaErrNetwork:
		return ErrNetworkFailure
	case MediaErrDecode, MediaErrSrcNotSupported:
		return ErrUnsupported
	default:
		return ErrUnknown
	}
}
