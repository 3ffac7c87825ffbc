// Package keylock serialises work per entity key. Mutating operations on an
// order, a ride or an agreement pair hold the matching key for their whole
// duration so concurrent requests cannot lose each other's updates.
package keylock

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Release frees a held key. Calling it more than once is a no-op.
type Release func()

// Locker hands out exclusive holds on string keys. Lock blocks until the key
// is free or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (Release, error)
}

func OrderKey(id uuid.UUID) string {
	return "order:" + id.String()
}

func RideKey(id uuid.UUID) string {
	return "ride:" + id.String()
}

func TicketKey(id uuid.UUID) string {
	return "ticket:" + id.String()
}

func UserKey(id uuid.UUID) string {
	return "user:" + id.String()
}

// AgreementKey is the same for (a, b) and (b, a).
func AgreementKey(a, b uuid.UUID) string {
	lo, hi := a.String(), b.String()
	if strings.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}
	return "agreement:" + lo + ":" + hi
}
