package entity

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
)

// Actor: аутентифицированная идентичность, которую передаёт слой авторизации.
// Ядро ей доверяет и учётные данные повторно не проверяет.
type Actor struct {
	ID    uuid.UUID
	Role  valueobject.ActorRole
	Email string
}

func (a Actor) IsCompany() bool {
	return a.Role == valueobject.RoleCompany
}
