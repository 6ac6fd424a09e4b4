package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/dto"
	"github.com/SscSPs/hera_engine/internal/middleware"
)

// respondError renders err the same way the gateway does.
func respondError(c *gin.Context, err error) {
	desc := apperrors.Describe(err)
	c.JSON(desc.Status, dto.Envelope{Success: false, Error: desc.Code, ErrorDetail: desc.Detail, ErrorHint: desc.Hint})
}

// respondBindError turns a gin binding failure into a VALIDATION_ERROR envelope.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		c.JSON(http.StatusBadRequest, dto.Envelope{
			Success: false, Error: "VALIDATION_ERROR", ErrorDetail: strings.Join(fields, "; "),
		})
		return
	}
	c.JSON(http.StatusBadRequest, dto.Envelope{
		Success: false, Error: "VALIDATION_ERROR", ErrorDetail: "Invalid request format: " + err.Error(),
	})
}

// resolveActor reconciles the actor named in the body with the authenticated
// subject. An empty claim takes the subject; a different one is refused with
// 403. Without authentication the claim is trusted.
func resolveActor(c *gin.Context, claimed string) (string, bool) {
	subject, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return claimed, true
	}
	if claimed == "" {
		return subject, true
	}
	if claimed != subject {
		middleware.GetLoggerFromContext(c).Warn("Actor does not match authenticated subject")
		c.JSON(http.StatusForbidden, dto.Envelope{
			Success:     false,
			Error:       "FORBIDDEN",
			ErrorDetail: "actor_user_id does not match the authenticated caller",
			ErrorHint:   "omit actor_user_id or send your own id",
		})
		return "", false
	}
	return claimed, true
}
