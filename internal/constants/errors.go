package constants

// Error codes used in JSON responses of the console.
// Format: XYZAB where XYZ follows the HTTP status family.
const (
	CodeBadRequest         = 40000
	CodeUnauthorized       = 41000
	CodeForbidden          = 43000
	CodeNotFound           = 44000
	CodeConflict           = 49000
	CodeInternalError      = 50000
	CodeBadGateway         = 52000
	CodeServiceUnavailable = 53000
	CodeGatewayTimeout     = 54000
)

// ErrorMessages holds the standard message per code
var ErrorMessages = map[int]string{
	CodeBadRequest:         "Bad request",
	CodeUnauthorized:       "Unauthorized",
	CodeForbidden:          "Forbidden",
	CodeNotFound:           "Not found",
	CodeConflict:           "Conflict",
	CodeInternalError:      "Internal server error",
	CodeBadGateway:         "Bad gateway",
	CodeServiceUnavailable: "Service unavailable",
	CodeGatewayTimeout:     "Gateway timeout",
}

// GetErrorMessage returns the standard message for an error code
func GetErrorMessage(code int) string {
	if msg, exists := ErrorMessages[code]; exists {
		return msg
	}
	return "Unknown error"
}

// CodeFromStatus maps an HTTP status to its generic error code
func CodeFromStatus(status int) int {
	switch status {
	case 400:
		return CodeBadRequest
	case 401:
		return CodeUnauthorized
	case 403:
		return CodeForbidden
	case 404:
		return CodeNotFound
	case 409:
		return CodeConflict
	case 502:
		return CodeBadGateway
	case 503:
		return CodeServiceUnavailable
	case 504:
		return CodeGatewayTimeout
	default:
		return CodeInternalError
	}
}
