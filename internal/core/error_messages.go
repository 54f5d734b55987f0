package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Patterns are matched case-insensitively against the
// error text, first match wins, so more specific patterns come first.
//
// # Format Errors (FMT001-FMT099)
//
//	FMT001 - Unterminated quote: a quoted cell is never closed
//	FMT002 - Column count: a row has more or fewer cells than the header
//	FMT003 - Empty file: the file has no header row
//	FMT004 - Duplicate column: a header names the same column twice
//	FMT005 - Malformed JSON: the file is not an array of objects
//	FMT006 - File too large: the file exceeds the configured limit
//	FMT007 - Unsupported format: only csv and json are accepted
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - Missing field: a required column or key is blank or absent
//	MAP002 - Invalid timestamp: a date is not RFC 3339
//	MAP003 - Invalid identifier: an id or reference is not a UUID
//	MAP004 - Invalid number: a numeric cell does not parse or is not finite
//	MAP005 - Wrong type: a JSON value has the wrong type
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Unknown kind
//	IMP002 - Preview expired or already confirmed
//	IMP003 - Override for a row the preview does not contain
//	IMP004 - Too many concurrent imports
//	IMP005 - Import cancelled
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: a record with this ID already exists
//	DB002 - Unique constraint: this value must be unique but already exists
//	DB003 - Foreign key: referenced record does not exist
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//	DB008 - Database locked (SQLite)
//	DB009 - Rejected request: the store refused a malformed record
//
// ERR000 is the fallback; support should check the logs for the original
// technical error.

import (
	"fmt"
	"strings"
)

// UserMessage is an error rendered for end users.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Format errors
	// =========================================================================
	{
		pattern: "unterminated quoted field",
		msg: UserMessage{
			Message: "A quoted cell is never closed",
			Action:  "Check the reported row for a missing closing quote",
			Code:    "FMT001",
		},
	},
	{
		pattern: "field count mismatch",
		msg: UserMessage{
			Message: "A row has a different number of cells than the header",
			Action:  "Quote values that contain commas, or fix the reported row",
			Code:    "FMT002",
		},
	},
	{
		pattern: "no header",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Download a template and add a header row",
			Code:    "FMT003",
		},
	},
	{
		pattern: "duplicate column",
		msg: UserMessage{
			Message: "The header names the same column twice",
			Action:  "Remove the repeated column",
			Code:    "FMT004",
		},
	},
	{
		pattern: "expected an array of objects",
		msg: UserMessage{
			Message: "The file is not a JSON array of records",
			Action:  "Export a sample file to see the expected layout",
			Code:    "FMT005",
		},
	},
	{
		pattern: "expected an object",
		msg: UserMessage{
			Message: "The file is not a JSON array of records",
			Action:  "Export a sample file to see the expected layout",
			Code:    "FMT005",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FMT006",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FMT006",
		},
	},
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "Unsupported file format",
			Action:  "Use csv or json",
			Code:    "FMT007",
		},
	},

	// =========================================================================
	// Mapping errors
	// =========================================================================
	{
		pattern: "missing field",
		msg: UserMessage{
			Message: "A required field is empty",
			Action:  "Fill in the reported column on every row",
			Code:    "MAP001",
		},
	},
	{
		pattern: "invalid timestamp",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use RFC 3339 timestamps such as 2025-01-01T08:00:00Z",
			Code:    "MAP002",
		},
	},
	{
		pattern: "invalid identifier",
		msg: UserMessage{
			Message: "An identifier is not a valid UUID",
			Action:  "Leave the ID blank to create a new record, or use the exported id",
			Code:    "MAP003",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use plain decimal numbers without units or separators",
			Code:    "MAP004",
		},
	},
	{
		pattern: "invalid integer",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use whole numbers in this column",
			Code:    "MAP004",
		},
	},
	{
		pattern: "must be finite",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use plain decimal numbers without units or separators",
			Code:    "MAP004",
		},
	},
	{
		pattern: "expected a",
		msg: UserMessage{
			Message: "A value has the wrong type",
			Action:  "Export a sample file to see the expected value types",
			Code:    "MAP005",
		},
	},
	{
		pattern: ": required",
		msg: UserMessage{
			Message: "A required field is empty",
			Action:  "Add the reported key to every record",
			Code:    "MAP001",
		},
	},

	// =========================================================================
	// Import errors
	// =========================================================================
	{
		pattern: "unknown kind",
		msg: UserMessage{
			Message: "Unknown record kind",
			Action:  "Use one of: action, goal, value, term",
			Code:    "IMP001",
		},
	},
	{
		pattern: "preview not found",
		msg: UserMessage{
			Message: "This preview has expired or was already confirmed",
			Action:  "Upload the file again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "override for unknown row",
		msg: UserMessage{
			Message: "A selection refers to a row that is not in the preview",
			Action:  "Reload the preview and try again",
			Code:    "IMP003",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "Too many imports are running",
			Action:  "Please wait a moment before trying again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The import was cancelled",
			Action:  "Records imported before cancelling were kept",
			Code:    "IMP005",
		},
	},

	// =========================================================================
	// Database errors
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Leave the ID blank to import it as a new record",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Import the referenced records first",
			Code:    "DB003",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Import the referenced records first",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database is busy",
			Action:  "Wait for the other import to finish and try again",
			Code:    "DB008",
		},
	},
	{
		pattern: "invalid create request",
		msg: UserMessage{
			Message: "The record was rejected by the store",
			Action:  "Review the reported row for invalid values",
			Code:    "DB009",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error gives the zero UserMessage.
//
//	msg := MapError(errors.New("row 2: LogTime: invalid timestamp \"yesterday\""))
//	// msg.Code == "MAP002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern, meaning its
// details are safe and useful to show. Unmatched errors should be logged
// and replaced with the generic message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message. Error() gives the
// user message; Unwrap() gives the original for logging and errors.Is.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err, returning nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
