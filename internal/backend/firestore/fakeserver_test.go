package firestore_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

const testRoot = "projects/p/databases/testdb/documents"

type storedDoc struct {
	Name       string         `json:"name"`
	Fields     map[string]any `json:"fields,omitempty"`
	CreateTime string         `json:"createTime"`
	UpdateTime string         `json:"updateTime"`
}

// fakeFirestore serves the subset of the Firestore v1 REST API the client
// uses: createDocument, patch, get, list and runQuery with a single
// equality filter.
type fakeFirestore struct {
	mu    sync.Mutex
	docs  map[string]*storedDoc
	order []string
	clock int
	next  int

	// served holds the names of documents returned by get, list or runQuery.
	served map[string]bool
	// lists counts documents.list calls.
	lists int

	// failCode, when set, is returned for every request.
	failCode int
}

func newFakeFirestore(t *testing.T) (*fakeFirestore, *httptest.Server) {
	t.Helper()
	f := &fakeFirestore{docs: make(map[string]*storedDoc), served: make(map[string]bool)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeFirestore) stored(name string) (*storedDoc, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[testRoot+"/"+name]
	return d, ok
}

// wasServed reports whether the document was ever returned by a read.
func (f *fakeFirestore) wasServed(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.served[testRoot+"/"+name]
}

func (f *fakeFirestore) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeFirestore) tick() string {
	f.clock++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(f.clock) * time.Microsecond).
		Format(time.RFC3339Nano)
}

func (f *fakeFirestore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCode != 0 {
		writeError(w, f.failCode, "UNAUTHENTICATED", "request had invalid credentials")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/")
	if parent, ok := strings.CutSuffix(path, ":runQuery"); ok && r.Method == http.MethodPost {
		f.runQuery(w, r, parent)
		return
	}
	rel, ok := strings.CutPrefix(path, testRoot+"/")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "bad path "+path)
		return
	}
	isCollection := len(strings.Split(rel, "/"))%2 == 1

	switch {
	case r.Method == http.MethodPost && isCollection:
		f.create(w, r, path)
	case r.Method == http.MethodGet && isCollection:
		f.list(w, path)
	case r.Method == http.MethodGet:
		f.get(w, path)
	case r.Method == http.MethodPatch:
		f.patch(w, r, path)
	default:
		writeError(w, http.StatusMethodNotAllowed, "UNIMPLEMENTED", r.Method)
	}
}

func (f *fakeFirestore) create(w http.ResponseWriter, r *http.Request, collection string) {
	var body storedDoc
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	f.next++
	name := fmt.Sprintf("%s/gen%d", collection, f.next)
	if body.Fields == nil {
		body.Fields = map[string]any{}
	}
	now := f.tick()
	doc := &storedDoc{Name: name, Fields: body.Fields, CreateTime: now, UpdateTime: now}
	f.docs[name] = doc
	f.order = append(f.order, name)
	writeJSON(w, doc)
}

func (f *fakeFirestore) get(w http.ResponseWriter, name string) {
	doc, ok := f.docs[name]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no entity to update: "+name)
		return
	}
	f.served[name] = true
	writeJSON(w, doc)
}

func (f *fakeFirestore) list(w http.ResponseWriter, collection string) {
	f.lists++
	resp := struct {
		Documents []*storedDoc `json:"documents,omitempty"`
	}{}
	for _, name := range f.inCollection(collection) {
		f.served[name] = true
		resp.Documents = append(resp.Documents, f.docs[name])
	}
	writeJSON(w, resp)
}

func (f *fakeFirestore) inCollection(collection string) []string {
	var names []string
	for _, name := range f.order {
		rest, ok := strings.CutPrefix(name, collection+"/")
		if ok && !strings.Contains(rest, "/") {
			names = append(names, name)
		}
	}
	return names
}

// runQuery answers with a JSON array of results, the way the real endpoint
// streams them.
func (f *fakeFirestore) runQuery(w http.ResponseWriter, r *http.Request, parent string) {
	var body struct {
		StructuredQuery struct {
			From []struct {
				CollectionID string `json:"collectionId"`
			} `json:"from"`
			Where struct {
				FieldFilter struct {
					Field struct {
						FieldPath string `json:"fieldPath"`
					} `json:"field"`
					Op    string `json:"op"`
					Value any    `json:"value"`
				} `json:"fieldFilter"`
			} `json:"where"`
		} `json:"structuredQuery"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	q := body.StructuredQuery
	filter := q.Where.FieldFilter
	if len(q.From) != 1 || filter.Op != "EQUAL" || filter.Field.FieldPath == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "unsupported query")
		return
	}

	type result struct {
		Document *storedDoc `json:"document,omitempty"`
		ReadTime string     `json:"readTime"`
	}
	readTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339Nano)
	results := []result{}
	for _, name := range f.inCollection(parent + "/" + q.From[0].CollectionID) {
		doc := f.docs[name]
		if reflect.DeepEqual(doc.Fields[filter.Field.FieldPath], filter.Value) {
			f.served[name] = true
			results = append(results, result{Document: doc, ReadTime: readTime})
		}
	}
	if len(results) == 0 {
		results = append(results, result{ReadTime: readTime})
	}
	writeJSON(w, results)
}

func (f *fakeFirestore) patch(w http.ResponseWriter, r *http.Request, name string) {
	var body storedDoc
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	q := r.URL.Query()
	doc, exists := f.docs[name]

	if rev := q.Get("currentDocument.updateTime"); rev != "" {
		if !exists || doc.UpdateTime != rev {
			writeError(w, http.StatusBadRequest, "FAILED_PRECONDITION", "the stored version does not match the required base version")
			return
		}
	}
	if q.Get("currentDocument.exists") == "true" && !exists {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no entity to update: "+name)
		return
	}

	now := f.tick()
	if !exists {
		doc = &storedDoc{Name: name, Fields: map[string]any{}, CreateTime: now}
		f.docs[name] = doc
		f.order = append(f.order, name)
	}
	if mask := q["updateMask.fieldPaths"]; len(mask) > 0 {
		for _, p := range mask {
			if v, ok := body.Fields[p]; ok {
				doc.Fields[p] = v
			} else {
				delete(doc.Fields, p)
			}
		}
	} else {
		doc.Fields = body.Fields
		if doc.Fields == nil {
			doc.Fields = map[string]any{}
		}
	}
	doc.UpdateTime = now
	writeJSON(w, doc)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, status, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg, "status": status},
	})
}
