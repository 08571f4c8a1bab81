package repository

import (
	"context"
	"strings"
	"sync"
)

// TaskRef identifies a task within a list.
type TaskRef struct {
	ListID string
	TaskID string
}

// EditState is an in-progress rename with its staged text.
type EditState struct {
	TaskRef
	Text string
}

// Session is the view-local state on top of a Repository: which list is
// expanded, which task is being renamed and which task awaits delete
// confirmation. Each holds at most one value. Nothing here is persisted.
type Session struct {
	repo *Repository

	mu            sync.Mutex
	expanded      string
	editing       *EditState
	pendingDelete *TaskRef
}

// NewSession creates an empty session over repo.
func NewSession(repo *Repository) *Session {
	return &Session{repo: repo}
}

// Repository returns the repository this session writes through.
func (s *Session) Repository() *Repository { return s.repo }

// ToggleExpansion expands listID, or collapses it if it is already expanded.
// Expanding one list collapses any other.
func (s *Session) ToggleExpansion(listID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expanded == listID {
		s.expanded = ""
		return
	}
	s.expanded = listID
}

// Expanded returns the expanded list id, or "" if none.
func (s *Session) Expanded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded
}

// StartEdit enters edit mode for a task, staging its current name.
// Returns false if the task is not in the snapshot.
func (s *Session) StartEdit(listID, taskID string) bool {
	list, ok := s.repo.List(listID)
	if !ok {
		return false
	}
	for _, t := range list.Tasks {
		if t.ID == taskID {
			s.mu.Lock()
			s.editing = &EditState{TaskRef: TaskRef{ListID: listID, TaskID: taskID}, Text: t.Name}
			s.mu.Unlock()
			return true
		}
	}
	return false
}

// SetEditText replaces the staged text. No-op outside edit mode.
func (s *Session) SetEditText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing != nil {
		s.editing.Text = text
	}
}

// Editing returns the current edit, if any.
func (s *Session) Editing() (EditState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return EditState{}, false
	}
	return *s.editing, true
}

// SaveEdit commits the staged text and leaves edit mode. Blank text is not
// written and keeps the edit open. A failed write also keeps it open.
func (s *Session) SaveEdit(ctx context.Context) error {
	edit, ok := s.Editing()
	if !ok || strings.TrimSpace(edit.Text) == "" {
		return nil
	}
	if err := s.repo.RenameTask(ctx, edit.ListID, edit.TaskID, edit.Text); err != nil {
		return err
	}
	s.mu.Lock()
	if s.editing != nil && s.editing.TaskRef == edit.TaskRef {
		s.editing = nil
	}
	s.mu.Unlock()
	return nil
}

// CancelEdit leaves edit mode without writing.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = nil
}

// RequestDelete marks a task as awaiting delete confirmation.
func (s *Session) RequestDelete(listID, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingDelete = &TaskRef{ListID: listID, TaskID: taskID}
}

// PendingDelete returns the task awaiting confirmation, if any.
func (s *Session) PendingDelete() (TaskRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingDelete == nil {
		return TaskRef{}, false
	}
	return *s.pendingDelete, true
}

// ConfirmDelete deletes the pending task and clears the marker. Without a
// pending task it does nothing. A failed write keeps the marker.
func (s *Session) ConfirmDelete(ctx context.Context) error {
	ref, ok := s.PendingDelete()
	if !ok {
		return nil
	}
	if err := s.repo.DeleteTask(ctx, ref.ListID, ref.TaskID); err != nil {
		return err
	}
	s.mu.Lock()
	if s.pendingDelete != nil && *s.pendingDelete == ref {
		s.pendingDelete = nil
	}
	s.mu.Unlock()
	return nil
}

// CancelDelete clears the pending marker without writing.
func (s *Session) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingDelete = nil
}
