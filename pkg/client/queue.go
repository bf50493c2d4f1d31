package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vibe-check-backend/internal/models"
)

// PendingVibe is a check-in waiting to be sent
type PendingVibe struct {
	Mood     int       `json:"mood"`
	Note     *string   `json:"note,omitempty"`
	QueuedAt time.Time `json:"queued_at"`
}

// Submitter sends a check-in to the server
type Submitter interface {
	SubmitVibe(ctx context.Context, mood int, note *string) (*models.Vibe, error)
}

// Rejection is a queued check-in the server refused for good
type Rejection struct {
	Vibe PendingVibe
	Err  error
}

// FlushResult summarizes a Flush
type FlushResult struct {
	Sent      int
	Resolved  int // already checked in on the server
	Rejected  []Rejection
	Remaining int
}

// Queue persists check-ins that could not be sent to a JSON file and
// retries them later.
type Queue struct {
	mu    sync.Mutex
	path  string
	items []PendingVibe
	now   func() time.Time
}

// OpenQueue loads the queue stored at path. A missing file is an empty queue.
func OpenQueue(path string) (*Queue, error) {
	q := &Queue{path: path, now: time.Now}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return q, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &q.items); err != nil {
			return nil, fmt.Errorf("failed to parse queue: %w", err)
		}
	}
	return q, nil
}

// Len returns the number of queued check-ins
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns a copy of the queued check-ins, oldest first
func (q *Queue) Pending() []PendingVibe {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]PendingVibe(nil), q.items...)
}

// Enqueue appends a check-in and persists the queue
func (q *Queue) Enqueue(mood int, note *string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, PendingVibe{Mood: mood, Note: note, QueuedAt: q.now().UTC()})
	if err := q.save(); err != nil {
		q.items = q.items[:len(q.items)-1]
		return err
	}
	return nil
}

// SubmitOrQueue sends a check-in, queueing it when the server cannot be
// reached or fails. queued reports whether it was queued. Errors the server
// returns for the request itself, such as 409 or 422, are returned unqueued.
func (q *Queue) SubmitOrQueue(ctx context.Context, s Submitter, mood int, note *string) (vibe *models.Vibe, queued bool, err error) {
	vibe, err = s.SubmitVibe(ctx, mood, note)
	if err == nil {
		return vibe, false, nil
	}
	if !IsRetryable(err) {
		return nil, false, err
	}

	if qerr := q.Enqueue(mood, note); qerr != nil {
		return nil, false, fmt.Errorf("submit failed (%v) and could not be queued: %w", err, qerr)
	}
	return nil, true, nil
}

// Flush sends queued check-ins oldest first.
//
// Accepted and 409 (already checked in) items are dropped. A transport error,
// 5xx, 401 or 403 stops the flush, keeps that item and the rest, and is
// returned; use IsUnauthorized to tell when a fresh login is needed. Items
// refused with any other 4xx are dropped and reported in Rejected.
func (q *Queue) Flush(ctx context.Context, s Submitter) (FlushResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var (
		result  FlushResult
		stopErr error
		done    int
	)

	for _, item := range q.items {
		_, err := s.SubmitVibe(ctx, item.Mood, item.Note)
		switch {
		case err == nil:
			result.Sent++
		case IsConflict(err):
			result.Resolved++
		case IsRetryable(err), IsUnauthorized(err):
			stopErr = err
		default:
			result.Rejected = append(result.Rejected, Rejection{Vibe: item, Err: err})
		}
		if stopErr != nil {
			break
		}
		done++
	}

	if done > 0 {
		q.items = append([]PendingVibe(nil), q.items[done:]...)
		if err := q.save(); err != nil {
			return result, err
		}
	}

	result.Remaining = len(q.items)
	return result, stopErr
}

// save writes the queue atomically. Caller holds mu.
func (q *Queue) save() error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0o700); err != nil {
		return fmt.Errorf("failed to create queue directory: %w", err)
	}

	data, err := json.MarshalIndent(q.items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode queue: %w", err)
	}

	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write queue: %w", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return fmt.Errorf("failed to replace queue: %w", err)
	}
	return nil
}
