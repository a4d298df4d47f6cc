package constants

// Context keys shared between middleware and handlers
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
)

// Pagination bounds
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 6

// InvitationTTLDays is how long a group invitation stays redeemable.
const InvitationTTLDays = 7
