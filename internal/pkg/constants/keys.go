package constants

import "time"

const (
	ViperLogLevel       = "log.level"
	ViperLogDevelopment = "log.development"

	ViperDBDriver = "db.driver"
	ViperDBDSN    = "db.dsn"

	ViperIngestFile      = "ingest.file"
	ViperIngestDelimiter = "ingest.delimiter"
	ViperIngestPolicy    = "ingest.policy"

	ViperExportDir        = "export.dir"
	ViperExportS3Bucket   = "export.s3.bucket"
	ViperExportS3Prefix   = "export.s3.prefix"
	ViperExportS3Region   = "export.s3.region"
	ViperExportS3Endpoint = "export.s3.endpoint"

	ViperFetchURL = "fetch.url"
	ViperFetchDir = "fetch.dir"

	ViperConsoleDir          = "console.dir"
	ViperConsoleEncodings    = "console.encodings"
	ViperConsoleMaxRows      = "console.max_rows"
	ViperConsoleQueryTimeout = "console.query_timeout"

	ViperAPIAddr         = "api.addr"
	ViperAPIAllowOrigins = "api.allow_origins"

	ViperSecretKey = "secret_key"
)

const (
	CookieKeySecretToken = "secret_token"
	CtxKeyRequestID      = "request_id"
	HeaderRequestID      = "X-Request-ID"
)

const (
	// MaxValueLen is the display cap applied to every loaded console value, in runes.
	MaxValueLen = 120

	DefaultMaxRows      = 10000
	DefaultQueryTimeout = 30 * time.Second
	PreviewMinRows      = 5
	PreviewMaxRows      = 100
	FilterMaxRows       = 50
	DistinctMaxValues   = 50
)
