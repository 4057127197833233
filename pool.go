package main

import (
	"bytes"
	"sync"
)

const (
	// DefaultPoolSize Pool configuration
	DefaultPoolSize = 4
	// Buffers that grew past this are dropped instead of being kept around.
	MaxRetainedBufferSize = 32 << 20
	initialBufferSize     = 1 << 20
)

// BufferPool recycles the buffers results are encoded into. Acquire never
// blocks: an empty pool hands out a freshly allocated buffer.
type BufferPool struct {
	buffers chan *bytes.Buffer
	size    int
	mu      sync.Mutex
	closed  bool
	metrics *PoolMetrics
}

type PoolMetrics struct {
	mu            sync.RWMutex
	inUse         int
	totalAcquired int64
	totalReleased int64
	allocated     int64
	discarded     int64
}

type PoolStats struct {
	PoolSize      int   `json:"pool_size"`
	Idle          int   `json:"idle_buffers"`
	InUse         int   `json:"buffers_in_use"`
	TotalAcquired int64 `json:"total_acquired"`
	TotalReleased int64 `json:"total_released"`
	Allocated     int64 `json:"allocated"`
	Discarded     int64 `json:"discarded"`
}

func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = DefaultPoolSize
	}

	pool := &BufferPool{
		buffers: make(chan *bytes.Buffer, size),
		size:    size,
		metrics: &PoolMetrics{},
	}

	for i := 0; i < size; i++ {
		pool.buffers <- pool.newBuffer()
	}

	return pool
}

func (p *BufferPool) Acquire() *bytes.Buffer {
	var buf *bytes.Buffer
	select {
	case buf = <-p.buffers:
	default:
		buf = p.newBuffer()
	}
	if buf == nil {
		// closed pool
		buf = p.newBuffer()
	}

	p.metrics.mu.Lock()
	p.metrics.inUse++
	p.metrics.totalAcquired++
	p.metrics.mu.Unlock()

	return buf
}

func (p *BufferPool) Release(buf *bytes.Buffer) {
	p.metrics.mu.Lock()
	p.metrics.inUse--
	p.metrics.totalReleased++
	p.metrics.mu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || buf.Cap() > MaxRetainedBufferSize {
		p.discard()
		return
	}

	buf.Reset()
	select {
	case p.buffers <- buf:
	default:
		p.discard()
	}
}

func (p *BufferPool) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.buffers)

	for range p.buffers {
	}
}

func (p *BufferPool) GetMetrics() PoolStats {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()

	return PoolStats{
		PoolSize:      p.size,
		Idle:          len(p.buffers),
		InUse:         p.metrics.inUse,
		TotalAcquired: p.metrics.totalAcquired,
		TotalReleased: p.metrics.totalReleased,
		Allocated:     p.metrics.allocated,
		Discarded:     p.metrics.discarded,
	}
}

func (p *BufferPool) newBuffer() *bytes.Buffer {
	p.metrics.mu.Lock()
	p.metrics.allocated++
	p.metrics.mu.Unlock()

	return bytes.NewBuffer(make([]byte, 0, initialBufferSize))
}

func (p *BufferPool) discard() {
	p.metrics.mu.Lock()
	p.metrics.discarded++
	p.metrics.mu.Unlock()
}
