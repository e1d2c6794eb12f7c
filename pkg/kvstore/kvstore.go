// Package kvstore defines the observable key-value store backing runtime
// settings. Writers publish values; subscribers are told which key changed
// and re-read it, so consumers always observe a full, consistent value.
package kvstore

import "context"

// Store is an observable string key-value store.
type Store interface {
	// Get returns ("", false, nil) when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Subscribe registers fn to run after each successful Set or Delete of
	// key. Callbacks receive only the key, not the value.
	Subscribe(key string, fn func(key string)) (unsubscribe func())
}
