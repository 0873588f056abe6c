package emby

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"strmsync/internal/config"
	"strmsync/internal/remote"
	"strmsync/internal/services"
)

const userAgent = "strmsync/0.1"

// HTTPDoer describes the HTTP client used by the Emby service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a thin wrapper over the Emby items API.
type Client struct {
	baseURL  string
	apiKey   string
	userID   string
	pageSize int
	timeout  time.Duration
	http     HTTPDoer
}

// NewClient builds a client from the [emby] configuration section.
func NewClient(cfg config.Emby) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		userID:   cfg.UserID,
		pageSize: cfg.PageSize,
		timeout:  time.Duration(cfg.RequestTimeout) * time.Second,
		http:     &http.Client{},
	}
}

// WithHTTPDoer overrides the transport; used by tests.
func (c *Client) WithHTTPDoer(doer HTTPDoer) *Client {
	c.http = doer
	return c
}

type item struct {
	ID           string `json:"Id"`
	Name         string `json:"Name"`
	IsFolder     bool   `json:"IsFolder"`
	Size         int64  `json:"Size"`
	Etag         string `json:"Etag"`
	DateModified string `json:"DateModified"`
	Container    string `json:"Container"`
	MediaType    string `json:"MediaType"`
}

type itemsPage struct {
	Items            []item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
}

// children returns one page of a directory listing. An empty parentID lists
// the user's library root.
func (c *Client) children(ctx context.Context, parentID string, startIndex int) (*itemsPage, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("Fields", "Path,DateModified,Etag")
	query.Set("StartIndex", strconv.Itoa(startIndex))
	query.Set("Limit", strconv.Itoa(c.pageSize))
	if parentID != "" {
		query.Set("ParentId", parentID)
	}
	endpoint := fmt.Sprintf("%s/emby/Users/%s/Items?%s", c.baseURL, url.PathEscape(c.userID), query.Encode())

	var page itemsPage
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrPermanent, "emby", "build request", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ClassifyNetError(err), "emby", "request", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ClassifyHTTPStatus(resp.StatusCode), "emby", "request",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrPermanent, "emby", "decode response", "", err)
	}
	return nil
}

// streamURL builds the direct-play URL a media player resolves for the item.
func (c *Client) streamURL(it item) string {
	kind := "Videos"
	if strings.EqualFold(it.MediaType, "Audio") {
		kind = "Audio"
	}
	container := strings.ToLower(strings.TrimSpace(it.Container))
	if idx := strings.IndexByte(container, ','); idx >= 0 {
		container = container[:idx]
	}
	name := "stream"
	if container != "" {
		name = "stream." + container
	}
	return fmt.Sprintf("%s/emby/%s/%s/%s?api_key=%s&Static=true",
		c.baseURL, kind, url.PathEscape(it.ID), name, url.QueryEscape(c.apiKey))
}

func (it item) fingerprint() string {
	if it.Etag != "" {
		return it.Etag
	}
	return it.DateModified
}

// Lister binds the client to one source's remote root, implementing
// remote.Lister.
type Lister struct {
	client     *Client
	rootPath   string
	rootItemID string
}

// Lister returns a remote.Lister for the given source.
func (c *Client) Lister(src *config.Source) *Lister {
	return &Lister{client: c, rootPath: src.RemoteRoot, rootItemID: src.RootItemID}
}

// Root resolves the source root. A configured root_item_id wins; otherwise
// the remote_root path segments are resolved folder by folder from the
// user's library root.
func (l *Lister) Root(ctx context.Context) (remote.Entry, error) {
	if l.rootItemID != "" {
		return remote.Entry{ID: l.rootItemID, Path: "/", Kind: remote.KindDirectory}, nil
	}

	current := remote.Entry{ID: "", Path: "/", Kind: remote.KindDirectory}
	segments := strings.Split(strings.Trim(l.rootPath, "/"), "/")
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		found := false
		children, err := l.listAll(ctx, current.ID)
		if err != nil {
			return remote.Entry{}, err
		}
		for _, it := range children {
			if it.IsFolder && it.Name == segment {
				current = remote.Entry{ID: it.ID, Path: "/", Kind: remote.KindDirectory}
				found = true
				break
			}
		}
		if !found {
			return remote.Entry{}, services.Wrap(services.ErrPermanent, "emby", "resolve root",
				fmt.Sprintf("folder %q not found under %q", segment, l.rootPath), nil)
		}
	}
	return current, nil
}

// List returns the immediate children of dir with logical paths joined onto
// dir.Path. Entries missing an id or name are malformed and skipped.
func (l *Lister) List(ctx context.Context, dir remote.Entry) ([]remote.Entry, error) {
	items, err := l.listAll(ctx, dir.ID)
	if err != nil {
		return nil, err
	}

	prefix := dir.Path
	if prefix == "/" {
		prefix = ""
	}

	entries := make([]remote.Entry, 0, len(items))
	for _, it := range items {
		if it.ID == "" || it.Name == "" || strings.ContainsRune(it.Name, '/') {
			continue
		}
		entry := remote.Entry{
			ID:          it.ID,
			Path:        prefix + "/" + it.Name,
			Fingerprint: it.fingerprint(),
		}
		if it.IsFolder {
			entry.Kind = remote.KindDirectory
		} else {
			entry.Kind = remote.KindFile
			entry.Size = it.Size
			entry.PlaybackURL = l.client.streamURL(it)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *Lister) listAll(ctx context.Context, parentID string) ([]item, error) {
	var items []item
	for start := 0; ; start += l.client.pageSize {
		page, err := l.client.children(ctx, parentID, start)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if len(items) >= page.TotalRecordCount || len(page.Items) == 0 {
			return items, nil
		}
	}
}
