package valueobject

import "strings"

// AccessLevel определяет, в какой набор соавторов попадает сотрудник.
type AccessLevel string

const (
	AccessEditor AccessLevel = "Editor"
	AccessViewer AccessLevel = "Viewer"
)

func (a AccessLevel) IsValid() bool {
	return a == AccessEditor || a == AccessViewer
}

// NormalizeAccessLevel приводит значение из профиля сотрудника к каноническому виду.
// Неизвестные значения считаются Viewer.
func NormalizeAccessLevel(raw string) AccessLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "editor":
		return AccessEditor
	default:
		return AccessViewer
	}
}

// ActorRole: роль идентичности, переданной слоем аутентификации.
type ActorRole string

const (
	RoleCompany  ActorRole = "company"
	RoleEmployee ActorRole = "employee"
)

func NormalizeActorRole(raw string) ActorRole {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "company":
		return RoleCompany
	default:
		return RoleEmployee
	}
}
