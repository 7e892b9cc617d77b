package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/interface/http/response"
	"github.com/ignatzorin/proposal-workspace/internal/service"
)

// ContextActorKey: ключ gin.Context, под которым лежит entity.Actor.
const ContextActorKey = "actor"

// AuthMiddleware проверяет JWT access токен и кладёт актора в контекст.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			return
		}

		actor, err := tokens.ParseActor(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "токен невалиден")
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// CurrentActor достаёт актора, положенного AuthMiddleware.
func CurrentActor(c *gin.Context) (entity.Actor, bool) {
	raw, exists := c.Get(ContextActorKey)
	if !exists {
		return entity.Actor{}, false
	}
	actor, ok := raw.(entity.Actor)
	return actor, ok
}
