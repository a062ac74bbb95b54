package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidThreshold     ErrorCode = 112
	ErrCodeInvalidStdDevPeriod  ErrorCode = 113
	ErrCodeInvalidSeries        ErrorCode = 120
	ErrCodeInvalidSamplingMode  ErrorCode = 121

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeHistoricalDataFailed  ErrorCode = 203
	ErrCodeNoDataFound           ErrorCode = 204
	ErrCodeCacheUnavailable      ErrorCode = 206
	ErrCodeCacheEncodingFailed   ErrorCode = 207

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError ErrorCode = 401
	ErrCodeUnsupportedStrategy ErrorCode = 403

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestNoDatasource  ErrorCode = 608
	ErrCodeBacktestNoAssets      ErrorCode = 609
	ErrCodeBatchCancelled        ErrorCode = 610
	ErrCodeBacktestSimulationErr ErrorCode = 611
)
