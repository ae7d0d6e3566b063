/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template, standardizing HTTP
responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat Protocol and Message Errors
	ErrMessageTooLong:     {Code: ErrMessageTooLong, Message: "Message is too long."},
	ErrProtocolViolation:  {Code: ErrProtocolViolation, Message: "Unexpected message for the current connection state."},
	ErrConnectionReplaced: {Code: ErrConnectionReplaced, Message: "This connection is no longer valid."},

	// 3xxx: Account and Session Errors
	ErrSessionInvalid:     {Code: ErrSessionInvalid, Message: "Invalid or expired session.", Status: http.StatusUnauthorized},
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidDisplayName: {Code: ErrInvalidDisplayName, Message: "Invalid display name.", Status: http.StatusBadRequest},
	ErrInvalidExternalID:  {Code: ErrInvalidExternalID, Message: "Invalid user id.", Status: http.StatusBadRequest},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Invalid password.", Status: http.StatusBadRequest},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "A user already exists with this id.", Status: http.StatusConflict},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect id or password.", Status: http.StatusBadRequest},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
