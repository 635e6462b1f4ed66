package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/demand-desk-api/internal/models"
	appErrors "github.com/noah-isme/demand-desk-api/pkg/errors"
)

// Envelope represents the common response contract for operator endpoints.
type Envelope struct {
	Success    bool               `json:"success"`
	Data       interface{}        `json:"data,omitempty"`
	Message    string             `json:"message,omitempty"`
	Error      *appErrors.Error   `json:"error,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// JSON writes an arbitrary payload with the no-store headers applied.
func JSON(c *gin.Context, status int, payload interface{}) {
	noStore(c)
	c.JSON(status, payload)
}

// Data sends a success envelope with optional pagination metadata.
func Data(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	JSON(c, status, Envelope{Success: true, Data: data, Pagination: pagination})
}

// Message sends a success envelope carrying only a human readable message.
func Message(c *gin.Context, status int, message string) {
	JSON(c, status, Envelope{Success: true, Message: message})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Success: false, Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
