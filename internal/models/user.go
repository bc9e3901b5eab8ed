package models

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string // Уникальный идентификатор пользователя
	Email        string // Электронная почта
	Username     string // Имя пользователя (уникальное)
	PasswordHash string // Хэш пароля пользователя
	Role         string // Роль пользователя, admin или user
}

// Identity результат проверки токена: типизированные данные
// о пользователе и его роли для авторизации запросов.
type Identity struct {
	UserUID  string
	Username string
	Role     string
}

// IsAdmin сообщает, имеет ли пользователь административную роль.
func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}
