package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchExtractsTitleAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>
			<head><title>  Test Page  </title><style>body { color: red }</style></head>
			<body>
				<nav>ignore this nav</nav>
				<script>var ignored = true;</script>
				<p>First   paragraph.</p>
				<p>Second paragraph.</p>
				<footer>ignore the footer</footer>
			</body>
		</html>`))
	}))
	defer srv.Close()

	scraper := NewScraper(5 * time.Second)
	title, text, err := scraper.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Test Page", title)
	assert.Equal(t, "First paragraph. Second paragraph.", text)
	assert.NotContains(t, text, "ignore")
	assert.NotContains(t, text, "ignored")
}

func TestFetchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	scraper := NewScraper(5 * time.Second)
	_, _, err := scraper.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><head><title>ok</title></head><body>ok</body></html>"))
	}))
	defer srv.Close()

	scraper := NewScraper(5 * time.Second)
	_, _, err := scraper.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, userAgent, gotUA)
}

func TestFetchContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	scraper := NewScraper(5 * time.Second)
	_, _, err := scraper.Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
