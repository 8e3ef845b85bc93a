package api

import (
	"errors"
	"fmt"

	"github.com/keepmind9/villabot/pkg/constants"
)

// Sentinel errors for the platform's documented retcodes. Wrapped into
// the *Error returned by API calls, so callers can errors.Is against
// them.
var (
	ErrUnknownServer            = errors.New("api: unknown server error")
	ErrInvalidRequest           = errors.New("api: invalid request")
	ErrInsufficientPermission   = errors.New("api: insufficient permission")
	ErrBotNotAdded              = errors.New("api: bot not added to villa")
	ErrPermissionDenied         = errors.New("api: permission denied")
	ErrInvalidMemberAccessToken = errors.New("api: invalid member bot access token")
	ErrInvalidBotAuthInfo       = errors.New("api: invalid bot auth info")
	ErrUnsupportedMsgType       = errors.New("api: unsupported message type")
	ErrActionFailed             = errors.New("api: action failed")
)

// Error is a non-zero retcode response from the platform.
type Error struct {
	Retcode int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: retcode %d: %s", e.Retcode, e.Message)
}

// Unwrap maps the retcode to its sentinel so errors.Is works.
func (e *Error) Unwrap() error {
	switch e.Retcode {
	case constants.RetcodeUnknownServerError:
		return ErrUnknownServer
	case constants.RetcodeInvalidRequest:
		return ErrInvalidRequest
	case constants.RetcodeInsufficientPermission:
		return ErrInsufficientPermission
	case constants.RetcodeBotNotAdded:
		return ErrBotNotAdded
	case constants.RetcodePermissionDenied:
		return ErrPermissionDenied
	case constants.RetcodeInvalidMemberAccessToken:
		return ErrInvalidMemberAccessToken
	case constants.RetcodeInvalidBotAuthInfo:
		return ErrInvalidBotAuthInfo
	case constants.RetcodeUnsupportedMsgType:
		return ErrUnsupportedMsgType
	default:
		return ErrActionFailed
	}
}
