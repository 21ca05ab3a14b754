package entity

import (
	"time"

	"github.com/google/uuid"
)

type Base struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Now returns the current time at the precision Postgres stores, so values
// held in memory compare equal to what is read back.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
