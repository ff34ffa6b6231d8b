package response

import "github.com/gin-gonic/gin"

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
		RequestID:  c.GetString(RequestIDKey),
	})
}
