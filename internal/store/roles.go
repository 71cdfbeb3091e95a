package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleAssignment links an account to a named role. One row per (user, role).
type RoleAssignment struct {
	bun.BaseModel `bun:"table:user_roles,alias:url"`

	ID        uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID    uuid.UUID  `bun:"user_id,notnull,unique:uq_user_roles_user_role,type:uuid" json:"user_id,omitempty"`
	Role      string     `bun:"role,notnull,unique:uq_user_roles_user_role" json:"role,omitempty"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
