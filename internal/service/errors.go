package service

import "errors"

// Failure taxonomy for the publishing pipeline. The orchestrator's caller
// decides retry vs give-up from the attempt counter alone, never from the
// class, so these exist for diagnostics: error_message always carries the
// most recent wrapped reason.
var (
	ErrConfiguration          = errors.New("pipeline is not configured")
	ErrNoCredentials          = errors.New("no publishing credentials available")
	ErrAuthentication         = errors.New("gateway rejected credentials")
	ErrRateLimited            = errors.New("gateway rate limit reached")
	ErrUnsupportedMediaFormat = errors.New("unsupported media format")
	ErrPreconditionFailed     = errors.New("precondition failed")
	ErrPlatformRejected       = errors.New("platform rejected the media")
	ErrPollTimeout            = errors.New("container processing timed out")
)
