package middleware

import (
	"errors"

	apiError "literature-manager/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var apiErr *apiError.APIError
		if !errors.As(err, &apiErr) {
			// raw errors are bugs or infrastructure failures
			apiErr = apiError.Internal(err)
		}

		logger := log.With().Str("request_id", c.GetString(RequestIDKey)).Logger()
		if apiErr.Status >= 500 {
			logger.Error().Err(apiErr.Internal).Msg(apiErr.Message)
		} else {
			logger.Info().Err(apiErr.Internal).Int("status", apiErr.Status).Msg(apiErr.Message)
		}

		c.AbortWithStatusJSON(apiErr.Status, apiErr)
	}
}
