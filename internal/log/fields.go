package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldUserID      = "user_id"
	FieldBillID      = "bill_id"
	FieldBillTitle   = "bill_title"
	FieldAmountCents = "amount_cents"
	FieldEntryType   = "entry_type"
	FieldWindow      = "window"
	FieldDocuments   = "documents"
	FieldFeedBackend = "feed_backend"
	FieldExportRef   = "export_ref"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentFeed    = "feed"
	ComponentStorage = "storage"
	ComponentService = "service"
	ComponentBlob    = "blob"
	ComponentExport  = "export"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names
const (
	OpSubmit      = "submit"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpPublish     = "publish"
	OpNormalize   = "normalize"
	OpExport      = "export"
	OpValidate    = "validate"
	OpStartup     = "startup"
	OpShutdown    = "shutdown"
)
