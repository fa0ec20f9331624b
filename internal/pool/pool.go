// Package pool provides reusable scratch buffers for draining response
// bodies, so byte counting under high concurrency does not allocate per
// request.
package pool

import "sync"

const defaultBufferSize = 32 * 1024

// BufferPool hands out fixed-size scratch buffers shared across workers.
// Buffers carry no request state; only their backing storage is reused.
type BufferPool struct {
	p    sync.Pool
	size int
}

// NewBufferPool creates a pool of buffers of the given size. A
// non-positive size falls back to 32 KiB.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = defaultBufferSize
	}
	bp := &BufferPool{size: size}
	bp.p.New = func() interface{} {
		buf := make([]byte, bp.size)
		return &buf
	}
	return bp
}

// Get returns a buffer of the pool's size.
func (bp *BufferPool) Get() *[]byte {
	return bp.p.Get().(*[]byte)
}

// Put returns a buffer for reuse. Buffers of the wrong size are dropped.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil || len(*buf) != bp.size {
		return
	}
	bp.p.Put(buf)
}
