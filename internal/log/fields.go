package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldCategoryID    = "category_id"
	FieldTagID         = "tag_id"
	FieldTitle         = "title"
	FieldKind          = "kind"
	FieldAmountCents   = "amount_cents"
	FieldPeriod        = "period"
	FieldCurrency      = "currency"
	FieldGeneration    = "generation"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentEngine   = "engine"
	ComponentPipeline = "pipeline"
	ComponentStorage  = "storage"
	ComponentPrefs    = "prefs"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentExport   = "export"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpAggregate = "aggregate"
	OpSuggest   = "suggest"
	OpExport    = "export"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
