package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeMissingParameter     ErrorCode = 103

	// Market data errors (200-299)
	ErrCodeSymbolUnavailable ErrorCode = 200
	ErrCodePriceFetchFailed  ErrorCode = 201

	// Sizing errors (300-399)
	ErrCodeSizingFailed       ErrorCode = 300
	ErrCodeBalanceUnavailable ErrorCode = 301
	ErrCodeLotSizeUnavailable ErrorCode = 302

	// Trading errors (400-499)
	ErrCodeOrderFailed         ErrorCode = 400
	ErrCodePartialExecution    ErrorCode = 401
	ErrCodePositionQueryFailed ErrorCode = 402
	ErrCodeLeverageFailed      ErrorCode = 403
	ErrCodeCancelFailed        ErrorCode = 404

	// Ledger errors (500-599)
	ErrCodeLedgerReadFailed  ErrorCode = 500
	ErrCodeLedgerWriteFailed ErrorCode = 501
	ErrCodeRecordNotFound    ErrorCode = 502

	// Retry errors (600-699)
	ErrCodeRetryExpired ErrorCode = 600

	// Notification errors (700-799)
	ErrCodeNotifyFailed ErrorCode = 700
)
