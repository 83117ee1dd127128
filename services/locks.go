package services

import "sync"

// lockShards is the size of the per-channel lock table. Channels hash onto
// shards, so two operations on the same channel always serialize while
// operations on different channels almost always run in parallel.
const lockShards = 64

// channelLocks is the sharded per-channel mutex table. The liveness engine
// and the channel admin service share one instance, so key mutations
// serialize with pings and sweeps on the same channel.
type channelLocks struct {
	shards [lockShards]sync.Mutex
}

func (l *channelLocks) lockFor(channelID int64) *sync.Mutex {
	idx := channelID % lockShards
	if idx < 0 {
		idx += lockShards
	}
	return &l.shards[idx]
}
