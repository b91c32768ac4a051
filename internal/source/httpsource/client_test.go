package httpsource_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-delivery/internal/source"
	"github.com/goliatone/go-delivery/internal/source/httpsource"
	"github.com/google/go-cmp/cmp"
)

func newClient(t *testing.T, handler http.HandlerFunc, apiKey string) *httpsource.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := httpsource.New(httpsource.Config{BaseURL: server.URL, APIKey: apiKey, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestFetchPageSendsBearerAndQuery(t *testing.T) {
	var seen *http.Request
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"about","model":"page","slug":"about","locale":"fr","blocks":[{"type":"heading","props":{"text":"Salut"}}]}`))
	}, "secret-key")

	page, err := client.FetchPage(context.Background(), source.PageQuery{Type: "page", Slug: "about", Locale: "fr"})
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if page.ID != "about" || page.Locale != "fr" || len(page.Root) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	if got := seen.Header.Get("Authorization"); got != "Bearer secret-key" {
		t.Fatalf("expected bearer header got %q", got)
	}
	if seen.URL.Path != "/v1/pages/lookup" {
		t.Fatalf("expected lookup path got %s", seen.URL.Path)
	}
	query := seen.URL.Query()
	if query.Get("slug") != "about" || query.Get("locale") != "fr" || query.Get("type") != "page" {
		t.Fatalf("unexpected query %v", query)
	}
}

func TestFetchPageMapsStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{name: "not found", status: http.StatusNotFound, want: source.ErrNotFound},
		{name: "server error", status: http.StatusBadGateway, want: source.ErrUnavailable},
		{name: "unauthorized", status: http.StatusUnauthorized, want: source.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}, "k")
			_, err := client.FetchPage(context.Background(), source.PageQuery{Slug: "x"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, err)
			}
			var fetchErr *source.FetchError
			if !errors.As(err, &fetchErr) || fetchErr.Op != source.OpFetchPage {
				t.Fatalf("expected FetchError for %s got %v", source.OpFetchPage, err)
			}
		})
	}
}

func TestFetchPageTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client, err := httpsource.New(httpsource.Config{BaseURL: server.URL, APIKey: "k", Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.FetchPage(context.Background(), source.PageQuery{Slug: "slow"}); !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on timeout got %v", err)
	}
}

func TestMissingCredentialsSkipsRequest(t *testing.T) {
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	}, "  ")

	if client.HasCredentials() {
		t.Fatalf("expected blank key to report no credentials")
	}
	if source.HasCredentials(client) {
		t.Fatalf("expected source.HasCredentials to consult the client")
	}
	if _, err := client.FetchTags(context.Background()); !errors.Is(err, source.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no request without credentials got %d", calls)
	}
}

func TestFetchPagesAndTags(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/pages":
			if r.URL.Query().Get("tag") != "news" || r.URL.Query().Get("page_size") != "5" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`[{"id":"a","model":"blog-post"}, "junk", {"id":"b","model":"blog-post"}]`))
		case "/v1/tags":
			_, _ = w.Write([]byte(`["news", 3, "go"]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, "k")

	pages, err := client.FetchPages(context.Background(), source.ListQuery{Type: "blog-post", Tag: "news", PageSize: 5})
	if err != nil {
		t.Fatalf("fetch pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages got %d", len(pages))
	}

	tags, err := client.FetchTags(context.Background())
	if err != nil {
		t.Fatalf("fetch tags: %v", err)
	}
	if diff := cmp.Diff([]string{"news", "go"}, tags); diff != "" {
		t.Fatalf("unexpected tags (-want +got):\n%s", diff)
	}
}

func TestFetchPagePreviewRejectsMalformedPayload(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}, "k")

	if _, err := client.FetchPagePreview(context.Background(), "tok"); !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected malformed preview to be unavailable got %v", err)
	}
	if _, err := client.FetchPagePreview(context.Background(), "other"); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected unknown token to be not found got %v", err)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := httpsource.New(httpsource.Config{APIKey: "k"}); !errors.Is(err, httpsource.ErrBaseURLRequired) {
		t.Fatalf("expected ErrBaseURLRequired got %v", err)
	}
}
