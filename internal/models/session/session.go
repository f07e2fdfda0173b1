package session

import (
	"time"

	"github.com/google/uuid"
)

// Session — серверная запись о выданной паре токенов.
// refresh-токен хранится только в виде хэша.
type Session struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	RefreshHash string    `json:"-" db:"refresh_hash"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
}
