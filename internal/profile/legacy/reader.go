// Package legacy reads the key-value store the app used before the storage
// adapter existed, and decodes its loosely typed JSON into profile entities.
// Legacy data is read-only here; nothing in this package deletes it.
package legacy

import (
	"context"
	"fmt"

	id "travelkeep/pkg/domain"
)

//go:generate mockgen -source=reader.go -destination=mocks/reader_mock.go -package=mocks Reader

// Reader returns the raw value stored under key. found is false when the
// key does not exist.
type Reader interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
}

// Legacy key families.
const (
	KeyPassport     = "@passport"
	KeyPersonalInfo = "@personal_info"
	KeyFundItems    = "@fund_items"
)

// UserKey is the user-scoped variant of a legacy key.
func UserKey(base string, userID id.UserID) string {
	return base + "_" + userID.String()
}

// Lookup reads the user-scoped key first, then the generic key. The
// returned key names where the value was found.
func Lookup(ctx context.Context, r Reader, base string, userID id.UserID) (value, key string, found bool, err error) {
	for _, k := range []string{UserKey(base, userID), base} {
		v, ok, err := r.GetItem(ctx, k)
		if err != nil {
			return "", k, false, fmt.Errorf("read legacy key %s: %w", k, err)
		}
		if ok && v != "" && v != "null" {
			return v, k, true, nil
		}
	}
	return "", "", false, nil
}
