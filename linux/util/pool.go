package util

import "sync"

// BytePool recycles fixed-width receive buffers between connections.
// Once closed, Get returns nil.
type BytePool struct {
	pool  chan []byte
	width int
	mu    sync.RWMutex
}

func NewBytePool(width int, depth int) *BytePool {
	return &BytePool{
		pool:  make(chan []byte, depth),
		width: width,
	}
}

// Width returns the length of the buffers handed out by Get.
func (p *BytePool) Width() int {
	return p.width
}

func (p *BytePool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool == nil {
		return
	}
	close(p.pool)
	p.pool = nil
}

func (p *BytePool) Get() (b []byte) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.pool == nil {
		return nil
	}

	select {
	case b = <-p.pool:
		b = b[:p.width]
	default:
		b = make([]byte, p.width)
	}
	return b
}

// Put returns b to the pool. Buffers narrower than the pool width and
// buffers beyond the pool depth are dropped.
func (p *BytePool) Put(b []byte) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.pool == nil || cap(b) < p.width {
		return
	}

	select {
	case p.pool <- b:
	default:
	}
}
