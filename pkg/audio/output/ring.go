// ABOUTME: Blocking byte ring buffer between the transfer engine and a device callback
// ABOUTME: Writers wait for space, readers never block and zero-fill on underrun
package output

import "sync"

// RingBuffer provides thread-safe circular buffer for PCM bytes
type RingBuffer struct {
	buffer   []byte
	readPos  int
	writePos int
	size     int
	count    int // Number of bytes currently in buffer
	closed   bool
	mu       sync.Mutex
	space    *sync.Cond
}

// NewRingBuffer creates a ring buffer with given capacity (in bytes)
func NewRingBuffer(capacity int) *RingBuffer {
	rb := &RingBuffer{
		buffer: make([]byte, capacity),
		size:   capacity,
	}
	rb.space = sync.NewCond(&rb.mu)
	return rb
}

// Write adds p to the ring buffer, waiting for the reader to make room.
// It returns ErrStopped if the buffer is closed before p fits.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for written < len(p) {
		for rb.count == rb.size && !rb.closed {
			rb.space.Wait()
		}
		if rb.closed {
			return written, ErrStopped
		}

		end := rb.writePos + rb.size - rb.count
		if end > rb.size {
			end = rb.size
		}
		n := copy(rb.buffer[rb.writePos:end], p[written:])
		rb.writePos = (rb.writePos + n) % rb.size
		rb.count += n
		written += n
	}
	return written, nil
}

// Read retrieves bytes from the ring buffer without blocking
func (rb *RingBuffer) Read(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for read < len(p) && rb.count > 0 {
		end := rb.readPos + rb.count
		if end > rb.size {
			end = rb.size
		}
		n := copy(p[read:], rb.buffer[rb.readPos:end])
		rb.readPos = (rb.readPos + n) % rb.size
		rb.count -= n
		read += n
	}

	// Zero-fill remaining if underrun
	clear(p[read:])

	if read > 0 {
		rb.space.Broadcast()
	}
	return read
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of free bytes in the buffer
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// Close wakes any blocked writer and rejects further writes
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.space.Broadcast()
	rb.mu.Unlock()
}

// Reset empties and reopens the buffer
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	rb.readPos, rb.writePos, rb.count = 0, 0, 0
	rb.closed = false
	rb.mu.Unlock()
}
