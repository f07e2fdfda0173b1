package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile — учётная запись пользователя. Используется и для проверки
// учётных данных, и как справочник отображаемых имён исполнителей.
type Profile struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FullName     string    `json:"full_name" db:"full_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DisplayName: full_name, иначе email, иначе первые 6 символов id.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.Email != "" {
		return p.Email
	}
	return p.ID.String()[:6]
}
