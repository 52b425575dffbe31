/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with browser clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Remote API and Content Errors
const (
	// ErrUpstreamFailed indicates the remote API answered with a non-success status.
	ErrUpstreamFailed = 2001

	// ErrUpstreamUnavailable indicates the remote API could not be reached at all.
	ErrUpstreamUnavailable = 2002

	// ErrNotFound indicates the requested project, post or entry does not exist.
	ErrNotFound = 2003

	// ErrMessageContentTooLong indicates that the chat or contact message exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201

	// ErrFileSizeTooLarge indicates an uploaded media file is over the size limit.
	ErrFileSizeTooLarge = 2301

	// ErrFileTypeInvalid indicates an uploaded media file has a disallowed type.
	ErrFileTypeInvalid = 2302
)

// 3xxx: Visitor, Session, and Security Errors
const (
	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 3001

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid or incorrect.
	ErrPowChallengeInvalid = 3002

	// ErrPowChallengeInternal indicates an internal error occurred during the PoW challenge generation or validation process.
	ErrPowChallengeInternal = 3003

	// ErrSessionKicked indicates a realtime tab was closed because the visitor opened too many.
	ErrSessionKicked = 3004

	// ErrUnauthorized indicates the visitor must sign in first.
	ErrUnauthorized = 3005

	// ErrForbidden indicates the signed-in user lacks the required role.
	ErrForbidden = 3006

	// ErrInvalidCredentials indicates the remote API rejected the login.
	ErrInvalidCredentials = 3007

	// ErrAlreadyLoggedIn indicates a login or register attempt from an authenticated session.
	ErrAlreadyLoggedIn = 3008
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStorageFailed indicates the visitor storage backend failed.
	ErrStorageFailed = 5001

	// ErrMediaDisabled indicates media storage is not configured on this deployment.
	ErrMediaDisabled = 5002

	// ErrFileStorageFailed indicates an S3 operation failed.
	ErrFileStorageFailed = 5003
)
