package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidTradeEvent    ErrorCode = 120

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Session errors (600-699)
	ErrCodeSessionStopped    ErrorCode = 600
	ErrCodeSessionInitFailed ErrorCode = 601

	// Output errors (700-799)
	ErrCodeWriterNotInitialized ErrorCode = 700
	ErrCodeWriteFailed          ErrorCode = 701
	ErrCodeRenderFailed         ErrorCode = 702
)
