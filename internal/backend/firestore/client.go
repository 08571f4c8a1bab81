// Package firestore implements the service.Store interface using the Cloud
// Firestore REST API.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	fs "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"fstodo/internal/config"
	"fstodo/internal/logging"
	"fstodo/internal/service"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// PageSize is the number of documents per list page.
	PageSize = 300
)

// Settings selects the database a Client talks to.
type Settings struct {
	ProjectID    string
	Database     string
	PollInterval time.Duration
	Logger       *log.Logger
}

// Client implements service.Store using Cloud Firestore.
type Client struct {
	svc      *fs.Service
	http     *http.Client
	root     string // projects/{p}/databases/{d}/documents
	interval time.Duration
	log      *log.Logger
}

// New creates a new Firestore client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, fs.DatastoreScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	// Token source refreshes the access token as needed
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))

	interval, err := cfg.PollInterval()
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(ctx, httpClient, Settings{
		ProjectID:    cfg.Settings.Firestore.ProjectID,
		Database:     cfg.Settings.Firestore.Database,
		PollInterval: interval,
		Logger:       logger,
	})
}

// NewWithHTTPClient creates a client with a custom HTTP client.
// Tests pass option.WithEndpoint to point it at a local server.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, s Settings, opts ...option.ClientOption) (*Client, error) {
	if s.ProjectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	if s.Database == "" {
		s.Database = "(default)"
	}
	if s.PollInterval <= 0 {
		s.PollInterval = config.DefaultPollInterval
	}
	if s.Logger == nil {
		s.Logger = logging.Discard()
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := fs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore service: %w", err)
	}

	return &Client{
		svc:      svc,
		http:     httpClient,
		root:     fmt.Sprintf("projects/%s/databases/%s/documents", s.ProjectID, s.Database),
		interval: s.PollInterval,
		log:      s.Logger.WithPrefix("firestore"),
	}, nil
}

// Create implements service.Store.
func (c *Client) Create(ctx context.Context, collection string, fields service.Fields) (service.DocRef, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	encoded, err := encodeFields(fields)
	if err != nil {
		return service.DocRef{}, err
	}
	parent, collectionID := c.splitCollection(collection)
	doc, err := c.svc.Projects.Databases.Documents.
		CreateDocument(parent, collectionID, &fs.Document{Fields: encoded}).
		Context(ctx).Do()
	if err != nil {
		return service.DocRef{}, wrapError(err)
	}

	ref, err := c.refFromName(doc.Name)
	if err != nil {
		return service.DocRef{}, err
	}
	c.log.Debug("document created", "ref", ref)
	return ref, nil
}

// Set implements service.Store.
func (c *Client) Set(ctx context.Context, ref service.DocRef, fields service.Fields) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	encoded, err := encodeFields(fields)
	if err != nil {
		return err
	}
	// Patch without a mask replaces the whole document, creating it if needed
	_, err = c.svc.Projects.Databases.Documents.
		Patch(c.name(ref), &fs.Document{Fields: encoded}).
		Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// Update implements service.Store.
func (c *Client) Update(ctx context.Context, ref service.DocRef, fields service.Fields, ifRevision string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	encoded, err := encodeFields(fields)
	if err != nil {
		return err
	}
	call := c.svc.Projects.Databases.Documents.
		Patch(c.name(ref), &fs.Document{Fields: encoded}).
		UpdateMaskFieldPaths(fieldPaths(fields)...)
	if ifRevision != "" {
		call = call.CurrentDocumentUpdateTime(ifRevision)
	} else {
		call = call.CurrentDocumentExists(true)
	}
	if _, err := call.Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// Get implements service.Store.
func (c *Client) Get(ctx context.Context, ref service.DocRef) (service.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	doc, err := c.svc.Projects.Databases.Documents.Get(c.name(ref)).Context(ctx).Do()
	if err != nil {
		return service.Document{}, wrapError(err)
	}
	return c.toDocument(doc)
}

// GetAll implements service.Store.
func (c *Client) GetAll(ctx context.Context, collection string) ([]service.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	parent, collectionID := c.splitCollection(collection)
	var result []service.Document
	err := c.svc.Projects.Databases.Documents.List(parent, collectionID).
		PageSize(PageSize).
		Pages(ctx, func(resp *fs.ListDocumentsResponse) error {
			for _, doc := range resp.Documents {
				d, err := c.toDocument(doc)
				if err != nil {
					return err
				}
				result = append(result, d)
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

func (c *Client) toDocument(doc *fs.Document) (service.Document, error) {
	ref, err := c.refFromName(doc.Name)
	if err != nil {
		return service.Document{}, err
	}
	return service.Document{
		Ref:      ref,
		Fields:   decodeFields(doc.Fields),
		Revision: doc.UpdateTime,
	}, nil
}

func (c *Client) name(ref service.DocRef) string {
	return c.root + "/" + ref.Path()
}

// splitCollection turns "users/u1/instances" into the parent document path
// and the collection id the API expects.
func (c *Client) splitCollection(collection string) (parent, collectionID string) {
	collection = strings.Trim(collection, "/")
	i := strings.LastIndex(collection, "/")
	if i < 0 {
		return c.root, collection
	}
	return c.root + "/" + collection[:i], collection[i+1:]
}

func (c *Client) refFromName(name string) (service.DocRef, error) {
	rel, ok := strings.CutPrefix(name, c.root+"/")
	if !ok {
		return service.DocRef{}, fmt.Errorf("document %q outside database %s", name, c.root)
	}
	return service.ParseRef(rel)
}

// wrapError maps API errors to store sentinels and user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch {
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
		return fmt.Errorf("token expired or revoked (run: fstodo login)")
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", service.ErrNotFound, gerr.Message)
	case gerr.Code == http.StatusConflict,
		strings.Contains(gerr.Body, "FAILED_PRECONDITION"),
		strings.Contains(gerr.Message, "FAILED_PRECONDITION"):
		return fmt.Errorf("%w: %s", service.ErrConflict, gerr.Message)
	}
	return err
}
