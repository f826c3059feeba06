package service

import (
	"context"
	"sync"

	"sudooom.storefront/internal/model"
)

// RefetchCause why the message list last changed. It decides which scroll
// adjustment runs after the list is rendered; never both.
type RefetchCause int

const (
	CauseNone RefetchCause = iota
	CauseLive
	CauseLoadOlder
)

func (c RefetchCause) String() string {
	switch c {
	case CauseLive:
		return "live"
	case CauseLoadOlder:
		return "load-older"
	default:
		return "none"
	}
}

// Viewport scrollable container the history is rendered into.
type Viewport interface {
	ScrollHeight() int
	ScrollTop() int
	SetScrollTop(top int)
}

// PageFetcher loads one newest-first page of messages.
type PageFetcher func(ctx context.Context, page, pageSize int) (*model.Page[model.Message], error)

// History paged message history of one conversation. Pages arrive newest
// first and are presented oldest first.
type History struct {
	mu        sync.Mutex
	fetch     PageFetcher
	pageSize  int
	pages     map[int][]model.Message
	loaded    int
	totalPage int
	cause     RefetchCause
	anchor    int // content height captured before a load-older fetch
}

func NewHistory(fetch PageFetcher, pageSize int) *History {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &History{
		fetch:    fetch,
		pageSize: pageSize,
		pages:    make(map[int][]model.Message),
	}
}

// Refresh refetches every loaded page (at least the first) as a live
// update. On error nothing changes. Pages a concurrent LoadOlder added while
// the refresh was in flight are kept, and its pending scroll anchor wins over
// the live cause.
func (h *History) Refresh(ctx context.Context) ([]model.Message, error) {
	h.mu.Lock()
	start := h.loaded
	h.mu.Unlock()
	n := start
	if n < 1 {
		n = 1
	}

	fresh := make(map[int][]model.Message, n)
	total := 0
	for p := 1; p <= n; p++ {
		page, err := h.fetch(ctx, p, h.pageSize)
		if err != nil {
			return nil, err
		}
		fresh[p] = page.Data
		total = page.Paginate.TotalPage
		if !page.Paginate.HasNext() {
			n = p
			break
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for p, msgs := range h.pages {
		if p <= start {
			continue
		}
		// loaded by LoadOlder after this refresh took its snapshot
		fresh[p] = msgs
		if p > n {
			n = p
		}
		if h.totalPage > total {
			total = h.totalPage
		}
	}
	h.pages = fresh
	h.loaded = n
	h.totalPage = total
	if h.cause != CauseLoadOlder {
		h.cause = CauseLive
	}
	return h.mergedLocked(), nil
}

// LoadOlder fetches the next older page. vp is measured before the fetch so
// Settle can keep the reader's position. False when there is nothing older.
func (h *History) LoadOlder(ctx context.Context, vp Viewport) (bool, error) {
	h.mu.Lock()
	if h.loaded > 0 && h.loaded >= h.totalPage {
		h.mu.Unlock()
		return false, nil
	}
	next := h.loaded + 1
	h.mu.Unlock()

	before := vp.ScrollHeight()
	page, err := h.fetch(ctx, next, h.pageSize)
	if err != nil {
		return false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.pages[next] = page.Data
	if next > h.loaded {
		h.loaded = next
	}
	h.totalPage = page.Paginate.TotalPage
	h.cause = CauseLoadOlder
	h.anchor = before
	return len(page.Data) > 0, nil
}

// Settle applies the scroll adjustment for the last change, once it has
// been rendered into vp. Load-older keeps the previously visible message in
// place; a live refresh sticks to the bottom.
func (h *History) Settle(vp Viewport) RefetchCause {
	h.mu.Lock()
	cause, anchor := h.cause, h.anchor
	h.cause = CauseNone
	h.mu.Unlock()

	switch cause {
	case CauseLoadOlder:
		vp.SetScrollTop(vp.ScrollTop() + vp.ScrollHeight() - anchor)
	case CauseLive:
		vp.SetScrollTop(vp.ScrollHeight())
	}
	return cause
}

// Cause pending cause not yet settled.
func (h *History) Cause() RefetchCause {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cause
}

// HasOlder reports whether a page older than the loaded ones exists.
func (h *History) HasOlder() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded == 0 || h.loaded < h.totalPage
}

// Messages loaded messages, oldest first, without duplicates.
func (h *History) Messages() []model.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mergedLocked()
}

func (h *History) Len() int {
	return len(h.Messages())
}

// mergedLocked pages shift when new messages arrive, so the same message can
// sit on two loaded pages; the newer page wins.
func (h *History) mergedLocked() []model.Message {
	seen := make(map[string]bool)
	var newestFirst []model.Message
	for p := 1; p <= h.loaded; p++ {
		for _, m := range h.pages[p] {
			if m.ID != "" && seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			newestFirst = append(newestFirst, m)
		}
	}

	out := make([]model.Message, len(newestFirst))
	for i, m := range newestFirst {
		out[len(newestFirst)-1-i] = m
	}
	return out
}

// RowViewport a viewport whose content height is the number of rendered
// rows times a fixed row height; used by the console renderer.
type RowViewport struct {
	mu        sync.Mutex
	rows      func() int
	rowHeight int
	top       int
}

func NewRowViewport(rows func() int, rowHeight int) *RowViewport {
	if rowHeight <= 0 {
		rowHeight = 1
	}
	return &RowViewport{rows: rows, rowHeight: rowHeight}
}

func (v *RowViewport) ScrollHeight() int {
	return v.rows() * v.rowHeight
}

func (v *RowViewport) ScrollTop() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.top
}

func (v *RowViewport) SetScrollTop(top int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.top = top
}
