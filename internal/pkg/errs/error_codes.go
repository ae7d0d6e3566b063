/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific business or system errors both internally and in
responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Chat Protocol and Message Errors
const (
	// ErrMessageTooLong indicates that a chat message body exceeded the maximum length.
	ErrMessageTooLong = 2101

	// ErrProtocolViolation indicates an event received in a connection state that
	// does not permit it (for example chat before join).
	ErrProtocolViolation = 2201

	// ErrConnectionReplaced indicates a closed connection identity was presented again.
	ErrConnectionReplaced = 2202
)

// 3xxx: Account and Session Errors
const (
	// ErrSessionInvalid covers absent, malformed, and revoked session tokens.
	// The three cases are deliberately indistinguishable to the peer.
	ErrSessionInvalid = 3001

	// ErrUnauthorized indicates a request requiring authentication arrived without
	// a valid session.
	ErrUnauthorized = 3002

	// ErrInvalidDisplayName indicates a display name failing validation.
	ErrInvalidDisplayName = 3101

	// ErrInvalidExternalID indicates an external id failing validation.
	ErrInvalidExternalID = 3102

	// ErrInvalidPassword indicates a password failing the length policy.
	ErrInvalidPassword = 3103

	// ErrUserAlreadyExists indicates the external id is already registered.
	ErrUserAlreadyExists = 3104

	// ErrInvalidCredentials indicates a failed login. Unknown id and wrong password
	// produce the same code.
	ErrInvalidCredentials = 3105

	// ErrUserNotFound indicates a lookup for a user record that does not exist.
	ErrUserNotFound = 3106
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)
