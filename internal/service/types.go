package service

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Fields holds document data. Values are string, bool, int64, float64,
// time.Time, []any, map[string]any or nil.
type Fields map[string]any

// DocRef addresses a document. Collection may be nested,
// e.g. "users/u1/instances".
type DocRef struct {
	Collection string
	ID         string
}

// Ref builds a DocRef.
func Ref(collection, id string) DocRef {
	return DocRef{Collection: collection, ID: id}
}

// Path returns the slash-separated document path.
func (r DocRef) Path() string {
	return r.Collection + "/" + r.ID
}

// String implements fmt.Stringer.
func (r DocRef) String() string { return r.Path() }

// ParseRef splits a document path into collection and id.
func ParseRef(path string) (DocRef, error) {
	path = strings.Trim(path, "/")
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return DocRef{}, fmt.Errorf("invalid document path: %q", path)
	}
	return DocRef{Collection: path[:i], ID: path[i+1:]}, nil
}

// Document is a stored document.
type Document struct {
	Ref      DocRef
	Fields   Fields
	Revision string // opaque, backend-defined
}

// Query selects documents in a collection. An empty Field matches all
// documents in the collection.
type Query struct {
	Collection string
	Field      string
	Equals     any
}

// All returns a query over every document in collection.
func All(collection string) Query {
	return Query{Collection: collection}
}

// Where returns a query over documents whose field equals value.
func Where(collection, field string, value any) Query {
	return Query{Collection: collection, Field: field, Equals: value}
}

// Matches reports whether doc satisfies the query.
func (q Query) Matches(doc Document) bool {
	if doc.Ref.Collection != q.Collection {
		return false
	}
	if q.Field == "" {
		return true
	}
	v, ok := doc.Fields[q.Field]
	if !ok {
		return false
	}
	return reflect.DeepEqual(v, q.Equals)
}

// Snapshot is the complete set of documents matching a subscription.
type Snapshot struct {
	Docs   []Document
	ReadAt time.Time
}

// Fingerprint identifies a snapshot by document paths and revisions.
// Two snapshots with the same fingerprint carry the same data.
func (s Snapshot) Fingerprint() string {
	var b strings.Builder
	for _, d := range s.Docs {
		b.WriteString(d.Ref.Path())
		b.WriteByte('@')
		b.WriteString(d.Revision)
		b.WriteByte(';')
	}
	return b.String()
}
