package emby

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"strmsync/internal/config"
	"strmsync/internal/remote"
	"strmsync/internal/services"
)

func testConfig(baseURL string) config.Emby {
	return config.Emby{
		BaseURL:        baseURL,
		APIKey:         "key-123",
		UserID:         "user-1",
		PageSize:       2,
		RequestTimeout: 5,
	}
}

func itemsHandler(t *testing.T, byParent map[string][]item) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/emby/Users/user-1/Items") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "key-123" {
			t.Fatalf("missing api key in %s", r.URL.RawQuery)
		}
		parent := r.URL.Query().Get("ParentId")
		start, _ := strconv.Atoi(r.URL.Query().Get("StartIndex"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("Limit"))

		all := byParent[parent]
		end := start + limit
		if end > len(all) {
			end = len(all)
		}
		page := itemsPage{TotalRecordCount: len(all)}
		if start < len(all) {
			page.Items = all[start:end]
		}
		_ = json.NewEncoder(w).Encode(page)
	}
}

func TestListerWalksPaginatedListing(t *testing.T) {
	byParent := map[string][]item{
		"": {
			{ID: "lib", Name: "Media", IsFolder: true},
		},
		"lib": {
			{ID: "movies", Name: "Movies", IsFolder: true},
		},
		"movies": {
			{ID: "m1", Name: "Heat (1995).mkv", Size: 100, Etag: "e1", Container: "mkv", MediaType: "Video"},
			{ID: "m2", Name: "Ronin (1998).mkv", Size: 200, Etag: "e2", Container: "mkv", MediaType: "Video"},
			{ID: "m3", Name: "Spy Game (2001).mkv", Size: 300, DateModified: "2026-01-02T03:04:05Z", Container: "mkv,webm", MediaType: "Video"},
		},
	}
	server := httptest.NewServer(itemsHandler(t, byParent))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	src := config.DefaultSource()
	src.RemoteRoot = "/Media/Movies"
	lister := client.Lister(&src)

	root, err := lister.Root(context.Background())
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.ID != "movies" || root.Path != "/" {
		t.Fatalf("unexpected root: %+v", root)
	}

	entries, err := lister.List(context.Background(), root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries across pages, got %d", len(entries))
	}

	first := entries[0]
	if first.Path != "/Heat (1995).mkv" || first.Kind != remote.KindFile {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Fingerprint != "e1" {
		t.Fatalf("expected etag fingerprint, got %q", first.Fingerprint)
	}
	wantURL := server.URL + "/emby/Videos/m1/stream.mkv?api_key=key-123&Static=true"
	if first.PlaybackURL != wantURL {
		t.Fatalf("unexpected stream url:\n got %s\nwant %s", first.PlaybackURL, wantURL)
	}

	// Multi-container values collapse to the first container.
	if !strings.Contains(entries[2].PlaybackURL, "stream.mkv") {
		t.Fatalf("expected first container in stream url, got %s", entries[2].PlaybackURL)
	}
	// Date-modified fallback when no etag is present.
	if entries[2].Fingerprint != "2026-01-02T03:04:05Z" {
		t.Fatalf("expected date fallback fingerprint, got %q", entries[2].Fingerprint)
	}
}

func TestListerRootItemIDSkipsResolution(t *testing.T) {
	client := NewClient(testConfig("http://unused.example"))
	src := config.DefaultSource()
	src.RootItemID = "root-42"
	lister := client.Lister(&src)

	root, err := lister.Root(context.Background())
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.ID != "root-42" {
		t.Fatalf("expected configured root id, got %+v", root)
	}
}

func TestListerRootMissingFolderIsPermanent(t *testing.T) {
	byParent := map[string][]item{"": {{ID: "lib", Name: "Media", IsFolder: true}}}
	server := httptest.NewServer(itemsHandler(t, byParent))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	src := config.DefaultSource()
	src.RemoteRoot = "/Media/Missing"
	lister := client.Lister(&src)

	_, err := lister.Root(context.Background())
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	src := config.DefaultSource()
	src.RootItemID = "root"
	lister := client.Lister(&src)

	_, err := lister.List(context.Background(), remote.Entry{ID: "root", Path: "/", Kind: remote.KindDirectory})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error for 502, got %v", err)
	}
}

func TestClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	src := config.DefaultSource()
	src.RootItemID = "root"
	lister := client.Lister(&src)

	_, err := lister.List(context.Background(), remote.Entry{ID: "root", Path: "/", Kind: remote.KindDirectory})
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error for 401, got %v", err)
	}
}

func TestMalformedItemsAreSkipped(t *testing.T) {
	byParent := map[string][]item{
		"root": {
			{ID: "", Name: "broken.mkv"},
			{ID: "ok", Name: "Fine.mkv", Container: "mkv", MediaType: "Video"},
		},
	}
	server := httptest.NewServer(itemsHandler(t, byParent))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	src := config.DefaultSource()
	src.RootItemID = "root"
	lister := client.Lister(&src)

	entries, err := lister.List(context.Background(), remote.Entry{ID: "root", Path: "/", Kind: remote.KindDirectory})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "/Fine.mkv" {
		t.Fatalf("expected malformed entry to be skipped, got %+v", entries)
	}
}
