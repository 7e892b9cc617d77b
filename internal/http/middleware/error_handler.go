package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-workspace/internal/interface/http/response"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки, добавленные обработчиками через c.Error.
// Коды доменных ошибок уходят клиенту как есть, внутренние маскируются.
func ErrorHandler(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		code := apperror.CodeOf(err)
		entry := log.WithFields(logrus.Fields{
			"code":   code,
			"path":   c.FullPath(),
			"method": c.Request.Method,
		}).WithError(err)

		switch code {
		case apperror.ErrCodeInternal, apperror.ErrCodeConsistencyFailure:
			entry.Error("request failed")
		default:
			entry.Debug("request rejected")
		}

		response.Error(c, err)
	}
}

// Recovery превращает панику обработчика в 500 с логом стека.
func Recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		log.WithFields(logrus.Fields{
			"panic":  recovered,
			"path":   c.FullPath(),
			"method": c.Request.Method,
		}).Error("handler panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Error: &response.ErrorInfo{Code: string(apperror.ErrCodeInternal), Message: "внутренняя ошибка сервера"},
		})
	})
}
