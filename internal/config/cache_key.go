package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// BatchFoldersKey returns the cache key for a batch's full folder list
func (r *CacheKeyStruct) BatchFoldersKey(batchID int64) string {
	return fmt.Sprintf("batch:%d:folders", batchID)
}

// BatchEventsChannel returns the Redis PubSub channel for content changes in a batch
func (r *CacheKeyStruct) BatchEventsChannel(batchID int64) string {
	return fmt.Sprintf("batch:%d:events", batchID)
}

// RevokedTokenKey returns the key marking a JWT (by jti) as logged out
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("revoked_token:%s", jti)
}

var CacheKey = NewCacheKeyStruct()
