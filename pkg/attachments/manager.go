package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marchholm/sage/pkg/api"
	"github.com/marchholm/sage/pkg/logger"
)

var (
	ErrUnsupportedType = errors.New("file type not supported")
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
)

// Status tracks where an attachment is in its upload lifecycle
type Status int

const (
	StatusUploading Status = iota
	StatusAttached
)

// Attachment is one tracked upload. A single table keyed by Handle holds
// every field, so the provisional-to-confirmed swap is one update rather
// than two maps that must agree. The provisional id exists purely for UI
// tracking and is never sent to the server.
type Attachment struct {
	Handle        string
	Filename      string
	Status        Status
	ProvisionalID string
	ServerID      int64
	Preview       *Preview
}

// Uploader is the slice of the API client the manager needs
type Uploader interface {
	UploadDocument(ctx context.Context, filename string, content io.Reader, progress api.ProgressFunc) (*api.DocumentUploadResponse, error)
}

// Manager owns the attachments queued for the next outgoing message.
// Uploads run independently; one failure neither blocks nor rolls back the
// others.
type Manager struct {
	mu       sync.Mutex
	uploader Uploader
	table    map[string]*Attachment
	order    []string

	maxBytes     int64
	allowed      map[string]bool
	releaseDelay time.Duration

	onError    func(message string)
	onProgress func(handle string, sent, total int64)
	onChange   func()
}

// Option configures a Manager
type Option func(*Manager)

// WithErrorHandler surfaces upload failures to the host
func WithErrorHandler(fn func(message string)) Option {
	return func(m *Manager) { m.onError = fn }
}

// WithProgressHandler reports per-attachment upload progress
func WithProgressHandler(fn func(handle string, sent, total int64)) Option {
	return func(m *Manager) { m.onProgress = fn }
}

// WithChangeHandler notifies the host after any state transition
func WithChangeHandler(fn func()) Option {
	return func(m *Manager) { m.onChange = fn }
}

// WithReleaseDelay overrides how long a preview outlives confirmation.
// The delay avoids a visible flicker when the confirmed record replaces
// the local preview.
func WithReleaseDelay(d time.Duration) Option {
	return func(m *Manager) { m.releaseDelay = d }
}

// NewManager creates an attachment manager enforcing the given extension
// allow-list and size limit
func NewManager(uploader Uploader, allowedExtensions []string, maxBytes int64, opts ...Option) *Manager {
	allowed := make(map[string]bool, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(ext)] = true
	}

	m := &Manager{
		uploader:     uploader,
		table:        make(map[string]*Attachment),
		maxBytes:     maxBytes,
		allowed:      allowed,
		releaseDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add validates and registers one file, then uploads it in the background.
// Returns the stable handle for the new attachment. Validation failures
// leave no state behind.
func (m *Manager) Add(ctx context.Context, filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !m.allowed[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if m.maxBytes > 0 && int64(len(content)) > m.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(content))
	}

	att := &Attachment{
		Handle:        uuid.NewString(),
		Filename:      filename,
		Status:        StatusUploading,
		ProvisionalID: "upload-" + uuid.NewString(),
		Preview:       NewPreview(content),
	}

	m.mu.Lock()
	m.table[att.Handle] = att
	m.order = append(m.order, att.Handle)
	m.mu.Unlock()
	m.notifyChange()

	go m.upload(ctx, att.Handle, filename, content)

	return att.Handle, nil
}

func (m *Manager) upload(ctx context.Context, handle, filename string, content []byte) {
	progress := func(sent, total int64) {
		if m.onProgress != nil {
			m.onProgress(handle, sent, total)
		}
	}

	uploaded, err := m.uploader.UploadDocument(ctx, filename, bytes.NewReader(content), progress)
	if err != nil {
		logger.Error("Upload of %s failed: %v", filename, err)
		m.fail(handle, err)
		return
	}

	m.confirm(handle, uploaded.ID)
}

// confirm swaps the provisional identifier for the server-confirmed one.
// One table, one update: no observer can see a half-applied swap.
func (m *Manager) confirm(handle string, serverID int64) {
	m.mu.Lock()
	att, ok := m.table[handle]
	if !ok {
		// Removed while the upload was in flight
		m.mu.Unlock()
		return
	}
	att.ServerID = serverID
	att.ProvisionalID = ""
	att.Status = StatusAttached
	preview := att.Preview
	m.mu.Unlock()
	m.notifyChange()

	if preview != nil {
		time.AfterFunc(m.releaseDelay, preview.Release)
	}
}

func (m *Manager) fail(handle string, err error) {
	m.mu.Lock()
	att, ok := m.table[handle]
	if ok {
		delete(m.table, handle)
		m.removeFromOrder(handle)
	}
	m.mu.Unlock()

	if ok && att.Preview != nil {
		att.Preview.Release()
	}
	m.notifyChange()

	if m.onError != nil {
		message := "Upload failed. Please try again."
		if err != nil && err.Error() != "" {
			message = err.Error()
		}
		m.onError(message)
	}
}

// Remove discards an attachment regardless of upload state and releases
// its preview
func (m *Manager) Remove(handle string) {
	m.mu.Lock()
	att, ok := m.table[handle]
	if ok {
		delete(m.table, handle)
		m.removeFromOrder(handle)
	}
	m.mu.Unlock()

	if ok && att.Preview != nil {
		att.Preview.Release()
	}
	m.notifyChange()
}

// ClearAll drops every attachment and releases every preview. Called as
// part of finalizing a successfully sent message.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	cleared := make([]*Attachment, 0, len(m.table))
	for _, att := range m.table {
		cleared = append(cleared, att)
	}
	m.table = make(map[string]*Attachment)
	m.order = nil
	m.mu.Unlock()

	for _, att := range cleared {
		if att.Preview != nil {
			att.Preview.Release()
		}
	}
	m.notifyChange()
}

// IDs returns the server-confirmed identifiers of attached uploads in the
// order they were added. Uploads still in flight are excluded; provisional
// identifiers never leave the client.
func (m *Manager) IDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.order))
	for _, handle := range m.order {
		if att, ok := m.table[handle]; ok && att.Status == StatusAttached {
			ids = append(ids, att.ServerID)
		}
	}
	return ids
}

// List returns a snapshot of every tracked attachment in add order
func (m *Manager) List() []Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]Attachment, 0, len(m.order))
	for _, handle := range m.order {
		if att, ok := m.table[handle]; ok {
			list = append(list, *att)
		}
	}
	return list
}

// Len returns the number of tracked attachments
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table)
}

// removeFromOrder drops a handle from the insertion-order slice. Callers
// hold the lock.
func (m *Manager) removeFromOrder(handle string) {
	for i, h := range m.order {
		if h == handle {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

func (m *Manager) notifyChange() {
	if m.onChange != nil {
		m.onChange()
	}
}
