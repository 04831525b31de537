package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castforge/castforge/internal/domain"
)

func TestParseVideoID(t *testing.T) {
	cases := []struct {
		url  string
		want string
		err  bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=abc123XYZ_-&t=42s", "abc123XYZ_-", false},
		{"https://example.com/not-a-video", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		id, err := ParseVideoID(tc.url)
		if tc.err {
			assert.ErrorIs(t, err, domain.ErrInvalidVideoURL, "url %q", tc.url)
			continue
		}
		require.NoError(t, err, "url %q", tc.url)
		assert.Equal(t, tc.want, id)
	}
}

func TestCleanTranscript(t *testing.T) {
	raw := `<transcript><text start="0.0" dur="2.1">Hello &amp; welcome</text>` + "\n\n" +
		`<text start="2.1" dur="3.0">to the show</text></transcript>`

	got := CleanTranscript(raw)

	assert.NotContains(t, got, "<")
	assert.Contains(t, got, "Hello & welcome")
	assert.Contains(t, got, "to the show")
}

func TestYouTubeExtractor_Transcript(t *testing.T) {
	const transcriptXML = `<transcript><text>caption text here</text></transcript>`

	var captionsURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			assert.Equal(t, "vid12345678", r.URL.Query().Get("v"))
			assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
			page := fmt.Sprintf(`..."captionTracks":[{"baseUrl":%q,"languageCode":"en","vssId":".en"}],...`, captionsURL)
			fmt.Fprint(w, page)
		case "/timedtext":
			fmt.Fprint(w, transcriptXML)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	captionsURL = srv.URL + "/timedtext"

	e := NewYouTubeExtractorWithBase(srv.Client(), srv.URL+"/watch", srv.URL+"/oembed")

	text, err := e.Transcript(context.Background(), "vid12345678")
	require.NoError(t, err)
	assert.Equal(t, "caption text here", text)
}

func TestYouTubeExtractor_NoCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>watch page without caption tracks</html>")
	}))
	defer srv.Close()

	e := NewYouTubeExtractorWithBase(srv.Client(), srv.URL+"/watch", srv.URL+"/oembed")

	_, err := e.Transcript(context.Background(), "vid12345678")
	assert.True(t, errors.Is(err, domain.ErrNoCaptions))
}

func TestYouTubeExtractor_NoEnglishTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `..."captionTracks":[{"baseUrl":"http://x","languageCode":"de","vssId":".de"}],...`)
	}))
	defer srv.Close()

	e := NewYouTubeExtractorWithBase(srv.Client(), srv.URL+"/watch", srv.URL+"/oembed")

	_, err := e.Transcript(context.Background(), "vid12345678")
	assert.True(t, errors.Is(err, domain.ErrNoCaptions))
}

func TestYouTubeExtractor_Title(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oembed", r.URL.Path)
		fmt.Fprint(w, `{"title":"A Great Talk","author_name":"someone"}`)
	}))
	defer srv.Close()

	e := NewYouTubeExtractorWithBase(srv.Client(), srv.URL+"/watch", srv.URL+"/oembed")

	title, err := e.Title(context.Background(), "https://www.youtube.com/watch?v=vid12345678")
	require.NoError(t, err)
	assert.Equal(t, "A Great Talk", title)
}
