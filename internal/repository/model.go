// Package repository owns the local snapshot of lists and tasks for one
// workspace and turns user actions into writes against a service.Store.
package repository

import (
	"fmt"
	"time"

	"fstodo/internal/service"
)

// Collection and field names shared with the mobile app's documents.
const (
	CollectionLists     = "lists"
	CollectionInstances = "instances"

	fieldName         = "name"
	fieldTasks        = "tasks"
	fieldInstanceID   = "instanceId"
	fieldTaskID       = "id"
	fieldTaskDone     = "isDone"
	fieldCreatedAt    = "createdAt"
	fieldUserID       = "userId"
	fieldInstanceName = "instanceName"
)

// Task is a single to-do item. It only exists inside a List.
type Task struct {
	ID   string
	Name string
	Done bool
}

// List is a named, ordered collection of tasks.
type List struct {
	ID         string
	Name       string
	InstanceID string
	Tasks      []Task
	Revision   string
}

// Instance is a workspace that partitions lists.
type Instance struct {
	Code      string
	Name      string
	UserID    string
	CreatedAt time.Time
}

// Membership records that a user created or joined an instance.
type Membership struct {
	InstanceID   string
	InstanceName string
}

// MembershipCollection returns the collection holding userID's memberships.
func MembershipCollection(userID string) string {
	return fmt.Sprintf("users/%s/instances", userID)
}

func listFromDoc(doc service.Document) List {
	l := List{
		ID:         doc.Ref.ID,
		Name:       stringField(doc.Fields, fieldName),
		InstanceID: stringField(doc.Fields, fieldInstanceID),
		Revision:   doc.Revision,
	}
	raw, _ := doc.Fields[fieldTasks].([]any)
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		done, _ := m[fieldTaskDone].(bool)
		l.Tasks = append(l.Tasks, Task{
			ID:   stringField(m, fieldTaskID),
			Name: stringField(m, fieldName),
			Done: done,
		})
	}
	return l
}

func encodeTasks(tasks []Task) []any {
	out := make([]any, len(tasks))
	for i, t := range tasks {
		out[i] = map[string]any{
			fieldTaskID:   t.ID,
			fieldName:     t.Name,
			fieldTaskDone: t.Done,
		}
	}
	return out
}

func newListFields(name, instanceID string) service.Fields {
	return service.Fields{
		fieldName:       name,
		fieldTasks:      []any{},
		fieldInstanceID: instanceID,
	}
}

func membershipFromDoc(doc service.Document) Membership {
	m := Membership{
		InstanceID:   stringField(doc.Fields, fieldInstanceID),
		InstanceName: stringField(doc.Fields, fieldInstanceName),
	}
	if m.InstanceID == "" {
		m.InstanceID = doc.Ref.ID
	}
	return m
}

func membershipFields(m Membership) service.Fields {
	return service.Fields{
		fieldInstanceName: m.InstanceName,
		fieldInstanceID:   m.InstanceID,
	}
}

func instanceFields(in Instance) service.Fields {
	return service.Fields{
		fieldName:      in.Name,
		fieldCreatedAt: in.CreatedAt,
		fieldUserID:    in.UserID,
	}
}

func instanceFromDoc(doc service.Document) Instance {
	in := Instance{
		Code:   doc.Ref.ID,
		Name:   stringField(doc.Fields, fieldName),
		UserID: stringField(doc.Fields, fieldUserID),
	}
	// JSON-backed stores hand timestamps back as strings.
	switch v := doc.Fields[fieldCreatedAt].(type) {
	case time.Time:
		in.CreatedAt = v
	case string:
		in.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return in
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func cloneList(l List) List {
	if l.Tasks != nil {
		l.Tasks = append([]Task(nil), l.Tasks...)
	}
	return l
}
