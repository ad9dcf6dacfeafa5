package server

import "sync"

// CopyBufferSize is the chunk size used to stream file bodies.
const CopyBufferSize = 32 << 10

// BufferPool manages reusable byte buffers of one fixed size
type BufferPool struct {
	size int
	pool sync.Pool
}

func NewBufferPool(size int) *BufferPool {
	bp := &BufferPool{size: size}
	bp.pool.New = func() interface{} {
		buf := make([]byte, size)
		return &buf
	}
	return bp
}

// Get returns a buffer of exactly the pool's size
func (bp *BufferPool) Get() *[]byte {
	buf := bp.pool.Get().(*[]byte)
	*buf = (*buf)[:bp.size]
	return buf
}

// Put returns a buffer to the pool. Buffers of another capacity are left
// to the GC.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil || cap(*buf) != bp.size {
		return
	}
	bp.pool.Put(buf)
}

func (bp *BufferPool) Size() int {
	return bp.size
}
