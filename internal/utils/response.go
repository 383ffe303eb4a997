package utils

// Response is the envelope every endpoint returns: an HTTP-style status,
// a human-readable message, and the payload. Data is kept in the struct
// even when empty so clients always see the field (null for errors).
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// NewResponse builds an envelope with an explicit status.
func NewResponse(status int, message string, data interface{}) Response {
	return Response{
		Status:  status,
		Message: message,
		Data:    data,
	}
}

// NewSuccessResponse builds a 200 envelope around the payload.
func NewSuccessResponse(message string, data interface{}) Response {
	return Response{
		Status:  200,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse builds a failure envelope; errors carry no payload.
func NewErrorResponse(status int, message string) Response {
	return Response{
		Status:  status,
		Message: message,
	}
}
