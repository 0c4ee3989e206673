package model

import (
	"time"

	"github.com/google/uuid"
)

// User owns accounts. It is created together with its first account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
