package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldExpenseID  = "expense_id"
	FieldTitle      = "title"
	FieldCategory   = "category"
	FieldCount      = "count"
	FieldBackend    = "backend"
	FieldKey        = "key"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentTracker = "tracker"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpEdit     = "edit"
	OpQuery    = "query"
	OpLoad     = "load"
	OpSave     = "save"
	OpPublish  = "publish"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Fields is a small builder for slog key/value pairs
type Fields []any

func NewFields() Fields {
	return make(Fields, 0, 8)
}

func (f Fields) With(key string, value any) Fields {
	return append(f, key, value)
}

func (f Fields) WithOperation(op string) Fields {
	return f.With(FieldOperation, op)
}

// WithError adds the error text; nil errors are skipped
func (f Fields) WithError(err error) Fields {
	if err == nil {
		return f
	}
	return f.With(FieldError, err.Error())
}

func (f Fields) WithExpense(id, title, category string) Fields {
	return f.With(FieldExpenseID, id).With(FieldTitle, title).With(FieldCategory, category)
}
