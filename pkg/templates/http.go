package templates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/httputil"
)

// maxPayload bounds a catalog response.
const maxPayload = 256 << 20

// envelope is the catalog API reply.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// HTTPStore reads templates from the catalog API at a base URL.
type HTTPStore struct {
	base   string
	client *http.Client
}

// NewHTTPStore returns a store for the API at baseURL.
func NewHTTPStore(baseURL string) (*HTTPStore, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid templates url %q", baseURL)
	}
	return &HTTPStore{
		base:   u.String(),
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// WithClient returns a copy of s using client.
func (s *HTTPStore) WithClient(client *http.Client) *HTTPStore {
	c := *s
	c.client = client
	return &c
}

// List implements Store.
func (s *HTTPStore) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	if err := s.get(ctx, s.base+"/templates", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get implements Store.
func (s *HTTPStore) Get(ctx context.Context, id string) (*Template, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "template id is required")
	}
	var t Template
	if err := s.get(ctx, s.base+"/templates/"+url.PathEscape(id), &t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = id
	}
	return &t, nil
}

// Close implements Store.
func (s *HTTPStore) Close() error { return nil }

func (s *HTTPStore) get(ctx context.Context, u string, v any) error {
	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		body, err = httputil.Get(ctx, s.client, u, maxPayload)
		return err
	})
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode templates reply")
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "get templates failed"
		}
		return errors.New(errors.ErrCodeNotFound, "%s", msg)
	}
	if len(env.Data) == 0 {
		return errors.New(errors.ErrCodeNotFound, "templates reply has no data")
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode templates data")
	}
	return nil
}
