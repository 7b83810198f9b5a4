package constants

import "time"

// File and directory permissions. State files hold tokens, so neither is
// readable by group or others.
const (
	ConfigDirPerm  = 0o700
	ConfigFilePerm = 0o600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ExtendedHTTPTimeout is used for image and object transfers.
	ExtendedHTTPTimeout = 10 * time.Minute

	// ShortHTTPTimeout is used for version discovery.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry and concurrency limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second

	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 5
)

// Authentication.
const (
	// TokenExpirationBuffer is how early a token is treated as about to expire.
	TokenExpirationBuffer = 30 * time.Second

	// AuthTokenHeader carries the Keystone token on requests.
	AuthTokenHeader = "X-Auth-Token" // #nosec G101 -- header name, not a credential

	// SubjectTokenHeader carries the issued token on Keystone responses.
	SubjectTokenHeader = "X-Subject-Token" // #nosec G101 -- header name, not a credential

	// DefaultDomain is used when a user or project domain is not given.
	DefaultDomain = "Default"
)

// Request headers.
const (
	HeaderAccept      = "Accept"
	HeaderContentType = "Content-Type"
	HeaderContentMD5  = "Content-MD5"
	HeaderETag        = "ETag"
	HeaderUserAgent   = "User-Agent"
	HeaderRequestID   = "X-Openstack-Request-Id"

	// HeaderAPIVersion is the generic microversion header.
	HeaderAPIVersion = "OpenStack-API-Version"

	// HeaderComputeAPIVersion is the legacy compute microversion header.
	HeaderComputeAPIVersion = "X-OpenStack-Nova-API-Version"

	MediaTypeJSON        = "application/json"
	MediaTypeOctetStream = "application/octet-stream"

	DefaultUserAgent = "ostack/dev"
)

// Pagination.
const (
	// ParamLimit is the OpenStack page size query parameter.
	ParamLimit = "limit"

	// ParamMarker is the OpenStack cursor query parameter.
	ParamMarker = "marker"

	// DefaultMarkerField is the item field echoed back as marker.
	DefaultMarkerField = "id"

	// DefaultNameField is the item field compared by name lookups.
	DefaultNameField = "name"

	// StandardPageSize is the CLI default page size.
	StandardPageSize = 100
)

// Cache.
const (
	// DefaultCacheSize is the default number of entries in the memory cache.
	DefaultCacheSize = 256

	// DefaultVersionCacheTTL is how long discovered versions stay cached.
	DefaultVersionCacheTTL = 1 * time.Hour

	// DefaultNATSBucket is the KV bucket used by the NATS cache backend.
	DefaultNATSBucket = "ostack-cache"
)

// Display.
const (
	NotAvailable = "N/A"
	MaskedSecret = "***"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatTable  = "table"

	// BodySummaryLimit bounds raw bodies quoted in error messages.
	BodySummaryLimit = 512
)

// Environment.
const (
	// EnvDevMode enables settings that are unsafe outside development.
	EnvDevMode = "OSTACK_DEV_MODE"

	// EnvConfigDir overrides the directory holding config and state files.
	EnvConfigDir = "OSTACK_CONFIG_DIR"
	// EnvNATSURL points the CLI's version cache at a NATS server.
	EnvNATSURL = "OSTACK_NATS_URL"
)
