// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// OverloadMessage is reported for URLs the tracker has never seen. An
// unknown URL cannot be told apart from a job lost to overload.
const OverloadMessage = "Reporting server overloaded - please try running a more specific report or contact support"

// State is the lifecycle state of a report job.
type State string

const (
	StateUnknown  State = "unknown"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

// Stages a running job passes through.
const (
	StageQueued    = "queued"
	StageQuerying  = "querying"
	StageBundling  = "bundling"
	StageUploading = "uploading"
)

// ErrEmptyURL is returned when a tracker call has no job URL.
var ErrEmptyURL = errors.New("job url is empty")

// Status is the recorded state of one job.
type Status struct {
	State   State     `json:"state"`
	Stage   string    `json:"stage,omitempty"`
	Error   string    `json:"error,omitempty"`
	Updated time.Time `json:"updated"`
}

// Store persists job statuses by URL. Entries are never evicted.
type Store interface {
	Get(ctx context.Context, url string) (Status, bool, error)
	Put(ctx context.Context, url string, st Status) error
	Len(ctx context.Context) (int, error)
	Close() error
}

// Tracker records job progress by artifact URL.
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a tracker over store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Start marks url running.
func (t *Tracker) Start(ctx context.Context, url string) error {
	return t.put(ctx, url, Status{State: StateRunning, Stage: StageQueued})
}

// SetStage records the stage of a running job. Finished jobs are left
// untouched.
func (t *Tracker) SetStage(ctx context.Context, url, stage string) error {
	st, err := t.Status(ctx, url)
	if err != nil {
		return err
	}
	if st.State == StateComplete || st.State == StateError {
		return nil
	}
	return t.put(ctx, url, Status{State: StateRunning, Stage: stage})
}

// MarkComplete marks url complete.
func (t *Tracker) MarkComplete(ctx context.Context, url string) error {
	return t.put(ctx, url, Status{State: StateComplete})
}

// MarkError marks url failed with msg.
func (t *Tracker) MarkError(ctx context.Context, url, msg string) error {
	return t.put(ctx, url, Status{State: StateError, Error: msg})
}

// Status returns the state of url. Unknown URLs carry OverloadMessage.
func (t *Tracker) Status(ctx context.Context, url string) (Status, error) {
	if url == "" {
		return Status{}, ErrEmptyURL
	}
	st, ok, err := t.store.Get(ctx, url)
	if err != nil {
		return Status{}, fmt.Errorf("job status: %w", err)
	}
	if !ok {
		return Status{State: StateUnknown, Error: OverloadMessage}, nil
	}
	return st, nil
}

// Len returns the number of tracked jobs.
func (t *Tracker) Len(ctx context.Context) (int, error) {
	return t.store.Len(ctx)
}

// Close closes the underlying store.
func (t *Tracker) Close() error {
	return t.store.Close()
}

func (t *Tracker) put(ctx context.Context, url string, st Status) error {
	if url == "" {
		return ErrEmptyURL
	}
	st.Updated = t.now().UTC()
	if err := t.store.Put(ctx, url, st); err != nil {
		return fmt.Errorf("record job %s: %w", st.State, err)
	}
	return nil
}
