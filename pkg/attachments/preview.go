package attachments

import "sync"

// Preview is the locally rendered thumbnail source for an attachment,
// derived from the raw file bytes rather than the network. It must be
// released exactly once; Release is idempotent so the delayed release after
// confirmation and the immediate release on removal can race safely.
type Preview struct {
	mu       sync.Mutex
	data     []byte
	released bool
}

// NewPreview copies raw file bytes into a preview resource
func NewPreview(raw []byte) *Preview {
	data := make([]byte, len(raw))
	copy(data, raw)
	return &Preview{data: data}
}

// Bytes returns the preview content, or nil once released
func (p *Preview) Bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data
}

// Release frees the preview content. Safe to call more than once; only the
// first call does anything.
func (p *Preview) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
	p.released = true
}

// Released reports whether the preview has been freed
func (p *Preview) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}
