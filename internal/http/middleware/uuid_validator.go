package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/interface/http/response"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметр пути является валидным UUID.
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(paramName)); err != nil {
			response.Error(c, apperror.New(apperror.ErrCodeValidation, "параметр "+paramName+" должен быть валидным UUID"))
			return
		}
		c.Next()
	}
}

// KindValidator отклоняет неизвестный вид предложения до обработчика.
func KindValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := valueobject.NewProposalKind(c.Param(paramName)); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}
