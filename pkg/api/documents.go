package api

import (
	"context"
	"fmt"
	"time"
)

// documentCacheTTL bounds how stale the cached document list may get
const documentCacheTTL = 5 * time.Minute

// ListDocuments fetches the reference document list, served from a short
// lived per-client cache unless force is set. The list changes rarely and
// several screens read it on mount.
func (c *Client) ListDocuments(ctx context.Context, force bool) ([]Document, error) {
	c.docMu.Lock()
	if !force && c.docCache != nil && time.Since(c.docFetchedAt) < documentCacheTTL {
		cached := make([]Document, len(c.docCache))
		copy(cached, c.docCache)
		c.docMu.Unlock()
		return cached, nil
	}
	c.docMu.Unlock()

	var list DocumentListResponse
	if err := c.doJSON(ctx, "GET", "/documents/list", nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	c.docMu.Lock()
	c.docCache = list.Documents
	c.docFetchedAt = time.Now()
	c.docMu.Unlock()

	return list.Documents, nil
}

// DocumentDownloadURL builds the direct download link for a document,
// carrying the token as a query parameter so the URL works outside the
// client's own transport
func (c *Client) DocumentDownloadURL(id int64) string {
	url := fmt.Sprintf("%s/documents/download/%d", c.baseURL, id)
	if c.token != "" {
		url += "?token=" + c.token
	}
	return url
}
