package gpuaccel

import (
	"errors"
	"fmt"
)

// bufferMapState mirrors internal/gpu/buffer.go's BufferMapState: a buffer
// is Unmapped, Pending while a map is in flight, or Mapped once its bytes
// are host-visible.
type bufferMapState int

const (
	stateUnmapped bufferMapState = iota
	statePending
	stateMapped
)

var (
	errBufferDestroyed = errors.New("gpuaccel: buffer has been destroyed")
	errBufferNotMapped = errors.New("gpuaccel: buffer is not mapped")
	errAlreadyMapped   = errors.New("gpuaccel: buffer is already mapped or mapping is pending")
)

// stagingBuffer is one half of a double-buffered tile slot: an input
// staging buffer uploaded from the host, and (separately) an output
// staging buffer read back to the host. The map/poll/unmap lifecycle is
// adapted from internal/gpu/buffer.go's Buffer, collapsed to synchronous
// completion since this collaborator's "device" executes kernels
// host-side (see remap.go).
type stagingBuffer struct {
	data      []byte
	state     bufferMapState
	destroyed bool
}

func newStagingBuffer(size int) *stagingBuffer {
	return &stagingBuffer{data: make([]byte, size)}
}

// mapWrite transitions Unmapped -> Pending -> Mapped and returns the
// writable slice, mirroring MapAsync followed by a single PollMapAsync
// that always completes immediately (there is no device to poll).
func (b *stagingBuffer) mapWrite() ([]byte, error) {
	if b.destroyed {
		return nil, errBufferDestroyed
	}
	if b.state != stateUnmapped {
		return nil, errAlreadyMapped
	}
	b.state = statePending
	b.state = stateMapped
	return b.data, nil
}

// mapRead is the readback counterpart of mapWrite.
func (b *stagingBuffer) mapRead() ([]byte, error) {
	return b.mapWrite()
}

// unmap returns the buffer to Unmapped, invalidating any slice returned by
// mapWrite/mapRead (GetMappedRange's contract in the teacher collaborator).
func (b *stagingBuffer) unmap() error {
	if b.destroyed {
		return errBufferDestroyed
	}
	b.state = stateUnmapped
	return nil
}

func (b *stagingBuffer) destroy() {
	b.data = nil
	b.destroyed = true
	b.state = stateUnmapped
}

// tileBufferPair is the "two input and two output device buffers" the
// tiled streaming contract requires: buffers are indexed by tile-index
// modulo 2 so that tile i+1's upload can proceed while tile i's readback
// is still draining (in a real device this overlaps transfer with
// compute; here it bounds peak host memory to two tiles' worth).
type tileBufferPair struct {
	in  [2]*stagingBuffer
	out [2]*stagingBuffer
}

// newTileBufferPair allocates both buffer pairs sized for the largest
// tile the caller will stream (tileBytes), so later tiles of the same or
// smaller size reuse the same backing arrays.
func newTileBufferPair(tileBytes int) *tileBufferPair {
	p := &tileBufferPair{}
	for i := 0; i < 2; i++ {
		p.in[i] = newStagingBuffer(tileBytes)
		p.out[i] = newStagingBuffer(tileBytes)
	}
	return p
}

// release destroys both buffer pairs. Errors at any stage of the tiled
// streaming loop call this before returning, per the contract's "Errors
// at any stage release both buffer pairs and return a failure code."
func (p *tileBufferPair) release() {
	for i := 0; i < 2; i++ {
		p.in[i].destroy()
		p.out[i].destroy()
	}
}

// slot returns the input/output buffer pair assigned to tile index i.
func (p *tileBufferPair) slot(i int) (*stagingBuffer, *stagingBuffer) {
	return p.in[i%2], p.out[i%2]
}

// uploadTile maps the input buffer for tile i, copies src into it, and
// unmaps, mirroring "upload into buf[i mod 2]" in the streaming contract.
func uploadTile(buf *stagingBuffer, src []byte) error {
	dst, err := buf.mapWrite()
	if err != nil {
		return fmt.Errorf("upload tile: %w", err)
	}
	if len(src) > len(dst) {
		return fmt.Errorf("upload tile: source %d bytes exceeds buffer capacity %d", len(src), len(dst))
	}
	copy(dst, src)
	return buf.unmap()
}

// readbackTile maps the output buffer for tile i for reading and copies
// its contents into dst, mirroring the async readback the contract
// describes (collapsed to synchronous completion here).
func readbackTile(buf *stagingBuffer, dst []byte) error {
	src, err := buf.mapRead()
	if err != nil {
		return fmt.Errorf("readback tile: %w", err)
	}
	if len(dst) > len(src) {
		return fmt.Errorf("readback tile: destination %d bytes exceeds buffer capacity %d", len(dst), len(src))
	}
	copy(dst, src[:len(dst)])
	return buf.unmap()
}
