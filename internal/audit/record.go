// Package audit persists the durable projection of every authentication
// domain event. Records are append-only: nothing in this service updates or
// deletes them.
package audit

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Record is one audited authentication attempt. The numeric identity is
// assigned by storage on append.
type Record struct {
	bun.BaseModel `bun:"table:eventos,alias:evt"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Nome          string    `bun:"nome,notnull" json:"nome"`
	Data          time.Time `bun:"data,notnull" json:"data"`
	Descricao     string    `bun:"descricao" json:"descricao"`
	CorrelationID string    `bun:"correlation_id" json:"correlation_id,omitempty"`
}

// Store is the append-only audit persistence capability.
type Store interface {
	// Append persists the record and returns it with its storage-assigned id.
	Append(ctx context.Context, record *Record) (*Record, error)

	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]*Record, error)
}
