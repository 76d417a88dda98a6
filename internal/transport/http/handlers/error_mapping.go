package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ErrorCase binds a sentinel error to the HTTP status, code, and message used
// when the error is observed.
type ErrorCase struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// RespondWithMappedError walks the cases in order and writes the first match.
// When no case matches it falls back to the provided status and message.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	for _, candidate := range cases {
		if candidate.Err == nil {
			continue
		}
		if errors.Is(err, candidate.Err) {
			if candidate.Code != "" {
				c.JSON(candidate.Status, NewCodedErrorResponse(c, candidate.Code, candidate.Message))
			} else {
				c.JSON(candidate.Status, NewErrorResponse(c, candidate.Message))
			}
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}
