package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/http/middleware"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
)

// abort передаёт ошибку в middleware.ErrorHandler, который и формирует ответ.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func currentActor(c *gin.Context) (entity.Actor, error) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return entity.Actor{}, apperror.ErrUnauthorized
	}
	return actor, nil
}

func kindParam(c *gin.Context) (valueobject.ProposalKind, error) {
	return valueobject.NewProposalKind(c.Param("kind"))
}

// requestContext собирает актора и вид предложения; при ошибке ответ уже запланирован.
func requestContext(c *gin.Context) (entity.Actor, valueobject.ProposalKind, bool) {
	actor, err := currentActor(c)
	if err != nil {
		abort(c, err)
		return entity.Actor{}, "", false
	}
	kind, err := kindParam(c)
	if err != nil {
		abort(c, err)
		return entity.Actor{}, "", false
	}
	return actor, kind, true
}

func badRequest(err error) error {
	return apperror.Wrap(err, apperror.ErrCodeBadRequest, "некорректные данные запроса")
}
