// Package keyvalue defines the small key-value contract the credential
// store persists through, with a sqlite implementation for durable storage
// and an in-memory one for tests and storage-less environments.
package keyvalue

import "context"

// Repository is a flat key-value store. Get returns (nil, nil) for a
// missing key so callers can treat absence as a normal state.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
