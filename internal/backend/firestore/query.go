package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	fs "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"

	"fstodo/internal/service"
)

// RunQuery returns the documents of q.Collection whose q.Field equals
// q.Equals, filtered by the server.
//
// The endpoint streams a JSON array of results, which the generated
// RunQuery call cannot decode, so the request is sent on the service's
// HTTP client directly.
func (c *Client) RunQuery(ctx context.Context, q service.Query) ([]service.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	value, err := encodeValue(q.Equals)
	if err != nil {
		return nil, err
	}
	parent, collectionID := c.splitCollection(q.Collection)
	body, err := json.Marshal(&fs.RunQueryRequest{
		StructuredQuery: &fs.StructuredQuery{
			From: []*fs.CollectionSelector{{CollectionId: collectionID}},
			Where: &fs.Filter{FieldFilter: &fs.FieldFilter{
				Field: &fs.FieldReference{FieldPath: q.Field},
				Op:    "EQUAL",
				Value: value,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	url := googleapi.ResolveRelative(c.svc.BasePath, "v1/"+parent+":runQuery")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError(err)
	}
	defer googleapi.CloseBody(res)
	if err := googleapi.CheckResponse(res); err != nil {
		return nil, wrapError(err)
	}

	var results []*fs.RunQueryResponse
	if err := json.NewDecoder(res.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode query results: %w", err)
	}
	var docs []service.Document
	for _, r := range results {
		if r.Document == nil {
			continue
		}
		d, err := c.toDocument(r.Document)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	c.log.Debug("query ran", "collection", q.Collection, "field", q.Field, "docs", len(docs))
	return docs, nil
}
