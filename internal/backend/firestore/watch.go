package firestore

import (
	"context"
	"time"

	"fstodo/internal/service"
)

// Subscribe implements service.Store by polling the collection every poll
// interval. A snapshot is sent when a document is added, removed or has a new
// update time. Failed polls are logged and tried again on the next tick.
func (c *Client) Subscribe(ctx context.Context, q service.Query) (<-chan service.Snapshot, error) {
	out := make(chan service.Snapshot)
	go func() {
		defer close(out)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		var last string
		sent := false
		for {
			snap, err := c.read(ctx, q)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				c.log.Warn("poll failed", "collection", q.Collection, "err", err)
			case !sent || snap.Fingerprint() != last:
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
				sent = true
				last = snap.Fingerprint()
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// read fetches the documents matching q. Filtered queries run on the server.
func (c *Client) read(ctx context.Context, q service.Query) (service.Snapshot, error) {
	var docs []service.Document
	var err error
	if q.Field == "" {
		docs, err = c.GetAll(ctx, q.Collection)
	} else {
		docs, err = c.RunQuery(ctx, q)
	}
	if err != nil {
		return service.Snapshot{}, err
	}
	snap := service.Snapshot{ReadAt: time.Now()}
	for _, d := range docs {
		if q.Matches(d) {
			snap.Docs = append(snap.Docs, d)
		}
	}
	return snap, nil
}
