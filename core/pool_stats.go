package core

import "github.com/searchktools/json-server/core/pools"

// PoolStats represents statistics for the engine's memory pools
type PoolStats struct {
	SessionGets uint64              `json:"session_gets"`
	SessionPuts uint64              `json:"session_puts"`
	Bytes       pools.BytePoolStats `json:"bytes"`
}

// PoolStats returns statistics for all memory pools. Safe to call while
// the engine is serving.
func (e *Engine) PoolStats() PoolStats {
	gets, puts := e.sessionPool.Stats()
	return PoolStats{
		SessionGets: gets,
		SessionPuts: puts,
		Bytes:       e.bytePool.Stats(),
	}
}
