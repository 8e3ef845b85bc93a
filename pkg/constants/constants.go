package constants

import "time"

// Webhook and API request headers defined by the Villa open platform.
// Header names come from platform documentation and can change between
// API revisions, so code references these constants instead of string
// literals.
const (
	// HeaderBotSign carries the base64 RSA signature of the request body
	HeaderBotSign = "x-rpc-bot_sign"
	// HeaderBotID identifies the bot on outbound API calls
	HeaderBotID = "x-rpc-bot_id"
	// HeaderBotSecret authenticates the bot on outbound API calls
	HeaderBotSecret = "x-rpc-bot_secret"
	// HeaderBotVillaID scopes an outbound API call to one villa
	HeaderBotVillaID = "x-rpc-bot_villa_id"
)

// Outbound API defaults
const (
	// DefaultAPIBaseURL is the bot platform REST endpoint prefix
	DefaultAPIBaseURL = "https://bbs-api.miyoushe.com/vila/api/bot/platform/"
	// DefaultAPITimeout is the per-request timeout for outbound API calls
	DefaultAPITimeout = 10 * time.Second
)

// Dispatch defaults
const (
	// DefaultHandlerTimeout bounds a single handler action
	DefaultHandlerTimeout = 30 * time.Second
	// DefaultServePort is the webhook server listen port
	DefaultServePort = 8080
	// MaxWebhookBodySize caps an inbound webhook body read
	MaxWebhookBodySize = 1 << 20 // 1 MB
)

// Message object names accepted by sendMessage
const (
	// ObjectNameText is the plain text message type
	ObjectNameText = "MHY:Text"
	// ObjectNameImage is the standalone image message type
	ObjectNameImage = "MHY:Image"
	// ObjectNamePost is the forum post share message type
	ObjectNamePost = "MHY:Post"
)

// Platform retcodes returned by the REST API
const (
	RetcodeOK                       = 0
	RetcodeInvalidRequest           = -1
	RetcodeUnknownServerError       = -502
	RetcodeInsufficientPermission   = 10318001
	RetcodeBotNotAdded              = 10322002
	RetcodePermissionDenied         = 10322003
	RetcodeInvalidMemberAccessToken = 10322004
	RetcodeInvalidBotAuthInfo       = 10322005
	RetcodeUnsupportedMsgType       = 10322006
)
