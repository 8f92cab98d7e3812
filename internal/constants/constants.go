package constants

// Session and context keys
const (
	SessionCookieName = "task_session"
	ContextKeyUserID  = "user_id"
	ContextKeyTask    = "task"
	ContextKeyMember  = "team_member"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 5
	MaxPageSize     = 50
)

// Auth
const (
	MinPasswordLength = 8
)

// Attachments
const (
	DefaultMaxUploadFiles = 5
	MaxUploadMemory       = 32 << 20
	AttachmentFormField   = "attachments"
)

// AI
const (
	MaxAIGeneratedTasks = 20
)
