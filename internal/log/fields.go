package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldUserID    = "user_id"
	FieldChatID    = "chat_id"
	FieldCommand   = "command"
	FieldTable     = "table"
	FieldRecordID  = "record_id"
	FieldCount     = "count"
	FieldAmount    = "amount"
	FieldDuration  = "duration_ms"
	FieldCacheHit  = "cache_hit"
	FieldError     = "error"
)

// Component names
const (
	ComponentApp     = "app"
	ComponentBot     = "bot"
	ComponentCLI     = "cli"
	ComponentFinance = "finance"
	ComponentTasks   = "tasks"
	ComponentAccount = "account"
	ComponentLock    = "lock"
	ComponentStorage = "storage"
	ComponentCharts  = "charts"
)

// Operation names
const (
	OpCreate  = "create"
	OpRead    = "read"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpList    = "list"
	OpReport  = "report"
	OpRender  = "render"
	OpLogin   = "login"
	OpLogout  = "logout"
	OpUnlock  = "unlock"
	OpStartup = "startup"
)
