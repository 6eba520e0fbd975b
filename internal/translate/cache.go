// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// CachedResponse is the value stored per cache key: one converted chunk's
// response, persisted so a later run with identical content can reuse it
// verbatim instead of calling the backend again.
type CachedResponse struct {
	Success       bool
	ConvertedCode string
	Warnings      []string
	TokensUsed    int
}

// ResponseCache is the translator's content-addressed response cache,
// keyed by chunk_type+chunk_id+content_hash so any edit to a chunk's
// content invalidates only that chunk's cache entry.
type ResponseCache struct {
	db *badger.DB
}

// OpenResponseCache opens (creating if absent) a Badger-backed cache
// rooted at dir.
func OpenResponseCache(dir string) (*ResponseCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening conversion cache at %s: %w", dir, err)
	}
	return &ResponseCache{db: db}, nil
}

// Close releases the underlying Badger database.
func (c *ResponseCache) Close() error {
	return c.db.Close()
}

// CacheKey builds the chunk_type+chunk_id+content_hash cache key for a
// chunk, where content_hash is a stable SHA-256 digest over the chunk's
// content.
func CacheKey(chunkType ChunkType, chunkID, content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%s_%s_%s", chunkType, chunkID, hex.EncodeToString(sum[:]))
}

// Get returns the cached response for key, if any.
func (c *ResponseCache) Get(key string) (CachedResponse, bool) {
	var out CachedResponse
	found := false
	_ = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return nil //nolint:nilerr // ErrKeyNotFound is the expected miss path
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &out); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	return out, found
}

// Put persists a successful response under key, reusable verbatim on a
// later run with the same content hash. Writes are idempotent: any writer
// racing to the same key produces the same bytes, since the key already
// binds the content.
func (c *ResponseCache) Put(key string, resp CachedResponse) error {
	encoded, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encoded)
	})
}
