package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hrcore/accounts/internal/constants"
	"github.com/hrcore/accounts/pkg/logger"
	"github.com/hrcore/accounts/pkg/validation"
	"go.uber.org/zap"
)

type ValidationMiddleware struct {
	validate *validator.Validate
}

func NewValidationMiddleware() *ValidationMiddleware {
	validate := validator.New()
	// DTOs carry their rules in gin's binding tag
	validate.SetTagName("binding")
	return &ValidationMiddleware{validate: validate}
}

// ValidateRequestBody decodes the body into the struct built by factory and
// runs the validator over it. The body is restored so the handler can bind
// it again.
func (m *ValidationMiddleware) ValidateRequestBody(factory func() interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(c.Request.Body)
			if err != nil {
				logger.GetLogger().Error("Failed to read request body",
					zap.String("client_ip", c.ClientIP()),
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Failed to read request body", nil))
				c.Abort()
				return
			}
		}

		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		request := factory()
		if err := json.Unmarshal(bodyBytes, request); err != nil {
			logger.GetLogger().Warn("JSON unmarshaling failed",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
				zap.Int("body_size", len(bodyBytes)),
				zap.Error(err),
			)
			c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid JSON payload", err.Error()))
			c.Abort()
			return
		}

		if err := m.validate.Struct(request); err != nil {
			var validationErrors []string
			for _, e := range err.(validator.ValidationErrors) {
				if fieldMessages := validation.CustomMessage(e.Field()); fieldMessages != nil {
					if msg, exists := fieldMessages[e.Tag()]; exists {
						validationErrors = append(validationErrors, msg)
						continue
					}
				}
				validationErrors = append(validationErrors, validation.DefaultMessage(e.Field(), e.Tag()))
			}

			logger.GetLogger().Warn("Request validation failed",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
				zap.Strings("validation_errors", validationErrors),
			)

			c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Validation failed", validationErrors))
			c.Abort()
			return
		}

		c.Next()
	}
}
