package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultNATSTimeout bounds a NATS request when the context has no deadline.
	DefaultNATSTimeout = 10 * time.Second
)

// Retry and concurrency limits.
const (
	// DefaultRetryMax is zero: every operation maps to exactly one request.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// DefaultBatchConcurrency limits concurrent per-type batch requests.
	DefaultBatchConcurrency = 4
)

// HTTP status codes commonly used.
const (
	// HTTPStatusOK is the only status the client accepts.
	HTTPStatusOK = 200

	// HTTPStatusBadRequest represents a client error.
	HTTPStatusBadRequest = 400

	// HTTPStatusInternalServerError represents server errors.
	HTTPStatusInternalServerError = 500
)

// Wire contract of the service.
const (
	// FieldResourceURI is the self URL of every resource.
	FieldResourceURI = "resource_uri"

	// FieldMeta holds list metadata.
	FieldMeta = "meta"

	// FieldTotalCount is the number of matches inside meta.
	FieldTotalCount = "total_count"

	// FieldObjects holds the resources of a list or batch response.
	FieldObjects = "objects"

	// FieldNotFound lists the ids a batch request could not find.
	FieldNotFound = "not_found"

	// FieldListEndpoint is the list URL of an entry endpoint record.
	FieldListEndpoint = "list_endpoint"

	// FieldSchema is the schema URL of an entry endpoint record.
	FieldSchema = "schema"

	// BatchPrefix starts a compound id path, as in "set/1;4;9/".
	BatchPrefix = "set/"

	// BatchSeparator joins ids in a compound id path.
	BatchSeparator = ";"

	// SchemaPath is appended to a list endpoint to reach its schema.
	SchemaPath = "schema/"
)

// NATS message headers used by the request/reply transport.
const (
	// HeaderStatus carries the HTTP status of a bridged response.
	HeaderStatus = "Tastypie-Status"

	// HeaderError carries a bridge-side transport error.
	HeaderError = "Tastypie-Error"

	// DefaultNATSSubject is the subject a bridge listens on.
	DefaultNATSSubject = "tastypie.get"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// StringTruncationLength is the default length for truncating cells.
	StringTruncationLength = 60

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// DefaultFindLimit is how many search results the CLI shows by default.
	DefaultFindLimit = 20
)

// Command argument counts.
const (
	// OneArgumentRequired indicates commands requiring exactly 1 argument.
	OneArgumentRequired = 1

	// TwoArgumentsRequired indicates commands requiring exactly 2 arguments.
	TwoArgumentsRequired = 2
)
