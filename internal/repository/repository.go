package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"fstodo/internal/logging"
	"fstodo/internal/service"
)

// maxWriteAttempts bounds how often one task-sequence change is re-applied
// on top of a fresher copy of the list after a revision conflict.
const maxWriteAttempts = 3

// ErrInstanceNotFound is returned by JoinInstance for an unknown code.
var ErrInstanceNotFound = errors.New("instance does not exist")

// Repository holds the latest snapshot of one instance's lists.
//
// Writes never touch the local snapshot: a change becomes visible only when
// the subscription delivers the store's next snapshot.
type Repository struct {
	store      service.Store
	log        *log.Logger
	userID     string
	instanceID string
	newID      func() string
	now        func() time.Time

	mu      sync.RWMutex
	lists   []List
	changed chan struct{}
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used to report failed operations.
func WithLogger(l *log.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// WithIDGenerator replaces the random UUID generator for task and instance ids.
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) { r.newID = fn }
}

// WithClock replaces time.Now for instance creation timestamps.
func WithClock(fn func() time.Time) Option {
	return func(r *Repository) { r.now = fn }
}

// New creates a repository for userID scoped to instanceID. An empty
// instanceID scopes the repository to every list in the store.
func New(store service.Store, userID, instanceID string, opts ...Option) *Repository {
	r := &Repository{
		store:      store,
		log:        logging.Discard(),
		userID:     userID,
		instanceID: instanceID,
		newID:      uuid.NewString,
		now:        time.Now,
		changed:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InstanceID returns the instance this repository is scoped to.
func (r *Repository) InstanceID() string { return r.instanceID }

// UserID returns the user memberships are written for.
func (r *Repository) UserID() string { return r.userID }

// Lists returns a copy of the current snapshot in store order.
func (r *Repository) Lists() []List {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]List, len(r.lists))
	for i, l := range r.lists {
		out[i] = cloneList(l)
	}
	return out
}

// List returns the list with the given id from the current snapshot.
func (r *Repository) List(id string) (List, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.lists {
		if l.ID == id {
			return cloneList(l), true
		}
	}
	return List{}, false
}

// Changed signals after each reconciled snapshot. Signals coalesce.
func (r *Repository) Changed() <-chan struct{} { return r.changed }

// Reconcile replaces the local snapshot with snap. No merge is attempted.
func (r *Repository) Reconcile(snap service.Snapshot) {
	lists := make([]List, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		lists = append(lists, listFromDoc(doc))
	}

	r.mu.Lock()
	r.lists = lists
	r.mu.Unlock()

	r.log.Debug("snapshot reconciled", "lists", len(lists))
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

func (r *Repository) query() service.Query {
	if r.instanceID == "" {
		return service.All(CollectionLists)
	}
	return service.Where(CollectionLists, fieldInstanceID, r.instanceID)
}

// Attach subscribes to the instance's lists, waits for the first snapshot
// and keeps reconciling in the background until ctx is cancelled.
func (r *Repository) Attach(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ch, err := r.store.Subscribe(ctx, r.query())
	if err != nil {
		r.log.Error("subscribe failed", "instance", r.instanceID, "err", err)
		return fmt.Errorf("subscribe: %w", err)
	}

	select {
	case snap, ok := <-ch:
		if !ok {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.New("subscription closed before first snapshot")
		}
		r.Reconcile(snap)
	case <-ctx.Done():
		return ctx.Err()
	}

	go func() {
		for snap := range ch {
			r.Reconcile(snap)
		}
		r.log.Debug("subscription closed", "instance", r.instanceID)
	}()
	return nil
}

// CreateList creates an empty list in the current instance. Blank names are
// ignored.
func (r *Repository) CreateList(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	ref, err := r.store.Create(ctx, CollectionLists, newListFields(name, r.instanceID))
	if err != nil {
		r.log.Error("create list failed", "name", name, "err", err)
		return fmt.Errorf("create list: %w", err)
	}
	r.log.Debug("list created", "list", ref.ID)
	return nil
}

// AddTask appends a new open task to a list. Blank names and lists missing
// from the snapshot are ignored.
func (r *Repository) AddTask(ctx context.Context, listID, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	task := Task{ID: r.newID(), Name: name}
	return r.mutateTasks(ctx, "add task", listID, AppendTask(task))
}

// ToggleTaskDone flips a task's done flag.
func (r *Repository) ToggleTaskDone(ctx context.Context, listID, taskID string) error {
	return r.mutateTasks(ctx, "toggle task", listID, ToggleDone(taskID))
}

// RenameTask sets a task's name. Callers normally go through Session.SaveEdit.
func (r *Repository) RenameTask(ctx context.Context, listID, taskID, name string) error {
	return r.mutateTasks(ctx, "rename task", listID, RenameTask(taskID, name))
}

// DeleteTask removes a task. Callers normally go through Session.ConfirmDelete.
func (r *Repository) DeleteTask(ctx context.Context, listID, taskID string) error {
	return r.mutateTasks(ctx, "delete task", listID, RemoveTask(taskID))
}

// mutateTasks applies m to the list's cached task sequence and writes the
// whole sequence back, guarded by the cached revision. When another writer
// got there first, m is re-applied to a freshly read copy.
func (r *Repository) mutateTasks(ctx context.Context, op, listID string, m Mutation) error {
	list, ok := r.List(listID)
	if !ok {
		r.log.Debug("list not in snapshot", "op", op, "list", listID)
		return nil
	}

	ref := service.Ref(CollectionLists, listID)
	tasks, rev := list.Tasks, list.Revision
	for attempt := 1; ; attempt++ {
		err := r.store.Update(ctx, ref, service.Fields{fieldTasks: encodeTasks(m(tasks))}, rev)
		if err == nil {
			return nil
		}
		if !errors.Is(err, service.ErrConflict) || attempt == maxWriteAttempts {
			r.log.Error(op+" failed", "list", listID, "attempt", attempt, "err", err)
			return fmt.Errorf("%s: %w", op, err)
		}

		r.log.Debug("stale list revision, re-reading", "op", op, "list", listID, "revision", rev)
		doc, err := r.store.Get(ctx, ref)
		if err != nil {
			r.log.Error(op+" failed", "list", listID, "err", err)
			return fmt.Errorf("%s: %w", op, err)
		}
		fresh := listFromDoc(doc)
		tasks, rev = fresh.Tasks, fresh.Revision
	}
}

// CreateInstance creates a workspace owned by the current user and records
// the membership. Blank names are ignored and yield a zero Membership.
func (r *Repository) CreateInstance(ctx context.Context, name string) (Membership, error) {
	if strings.TrimSpace(name) == "" {
		return Membership{}, nil
	}

	in := Instance{
		Code:      r.newID(),
		Name:      name,
		UserID:    r.userID,
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.Set(ctx, service.Ref(CollectionInstances, in.Code), instanceFields(in)); err != nil {
		r.log.Error("create instance failed", "name", name, "err", err)
		return Membership{}, fmt.Errorf("create instance: %w", err)
	}

	m := Membership{InstanceID: in.Code, InstanceName: in.Name}
	if err := r.writeMembership(ctx, m); err != nil {
		return Membership{}, fmt.Errorf("create instance: %w", err)
	}
	return m, nil
}

// JoinInstance records membership of an existing instance. An unknown code
// returns ErrInstanceNotFound and writes nothing. Blank codes are ignored.
func (r *Repository) JoinInstance(ctx context.Context, code string) (Membership, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Membership{}, nil
	}

	doc, err := r.store.Get(ctx, service.Ref(CollectionInstances, code))
	if errors.Is(err, service.ErrNotFound) {
		r.log.Warn("join: instance does not exist", "code", code)
		return Membership{}, fmt.Errorf("%w: %s", ErrInstanceNotFound, code)
	}
	if err != nil {
		r.log.Error("join instance failed", "code", code, "err", err)
		return Membership{}, fmt.Errorf("join instance: %w", err)
	}

	in := instanceFromDoc(doc)
	m := Membership{InstanceID: code, InstanceName: in.Name}
	if err := r.writeMembership(ctx, m); err != nil {
		return Membership{}, fmt.Errorf("join instance: %w", err)
	}
	return m, nil
}

// Instances lists the instances the current user created or joined.
func (r *Repository) Instances(ctx context.Context) ([]Membership, error) {
	docs, err := r.store.GetAll(ctx, MembershipCollection(r.userID))
	if err != nil {
		r.log.Error("list instances failed", "user", r.userID, "err", err)
		return nil, fmt.Errorf("list instances: %w", err)
	}
	out := make([]Membership, 0, len(docs))
	for _, doc := range docs {
		out = append(out, membershipFromDoc(doc))
	}
	return out, nil
}

func (r *Repository) writeMembership(ctx context.Context, m Membership) error {
	ref := service.Ref(MembershipCollection(r.userID), m.InstanceID)
	if err := r.store.Set(ctx, ref, membershipFields(m)); err != nil {
		r.log.Error("write membership failed", "instance", m.InstanceID, "err", err)
		return err
	}
	return nil
}
