package errors

const (
	HttpInternalError      = "internal_error"
	HttpUnauthorizedError  = "unauthorized"
	HttpInvalidArgument    = "invalid_argument"
	HttpMissingParameter   = "missing_parameter"
	HttpUpstreamFailure    = "upstream_failure"
	HttpStorageUnavailable = "storage_unavailable"
)

// ErrorResponse is the JSON error body returned by every HTTP endpoint.
// Detail is always safe to show to callers.
type ErrorResponse struct {
	ErrorType string `json:"error_type"`
	Detail    string `json:"detail"`
}
