package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/castforge/castforge/internal/domain"
)

// videoIDRegex matches the 11-character video ID in watch, short, and embed URLs.
var videoIDRegex = regexp.MustCompile(`(?:v=|/)([a-zA-Z0-9_-]{11})`)

// ParseVideoID extracts the YouTube video ID from a URL.
func ParseVideoID(rawURL string) (string, error) {
	m := videoIDRegex.FindStringSubmatch(rawURL)
	if m == nil {
		return "", domain.ErrInvalidVideoURL
	}
	return m[1], nil
}

// captionTrack is one entry of the watch page's captionTracks JSON.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	VssID        string `json:"vssId"`
}

var captionTracksRegex = regexp.MustCompile(`"captionTracks":(\[.*?\]),`)

// YouTubeExtractor fetches English caption transcripts and video titles.
// YouTube exposes no official transcript API; the caption track URLs are
// scraped out of the watch page HTML, the way browser clients obtain them.
type YouTubeExtractor struct {
	client   *http.Client
	watchURL string
	oembed   string
}

// NewYouTubeExtractor creates a transcript extractor against youtube.com.
func NewYouTubeExtractor() *YouTubeExtractor {
	return &YouTubeExtractor{
		client:   &http.Client{Timeout: 30 * time.Second},
		watchURL: "https://www.youtube.com/watch",
		oembed:   "https://www.youtube.com/oembed",
	}
}

// NewYouTubeExtractorWithBase creates an extractor against custom endpoints (tests).
func NewYouTubeExtractorWithBase(client *http.Client, watchURL, oembedURL string) *YouTubeExtractor {
	return &YouTubeExtractor{client: client, watchURL: watchURL, oembed: oembedURL}
}

// Transcript fetches and cleans the English caption transcript of a video.
// Returns ErrNoCaptions when the video has no usable English track.
func (e *YouTubeExtractor) Transcript(ctx context.Context, videoID string) (string, error) {
	page, err := e.get(ctx, e.watchURL+"?v="+url.QueryEscape(videoID), true)
	if err != nil {
		return "", fmt.Errorf("fetch watch page: %w", err)
	}

	m := captionTracksRegex.FindSubmatch(page)
	if m == nil {
		return "", domain.ErrNoCaptions
	}

	var tracks []captionTrack
	if err := json.Unmarshal(m[1], &tracks); err != nil {
		return "", fmt.Errorf("parse caption tracks: %w", err)
	}

	track := pickEnglishTrack(tracks)
	if track == nil {
		return "", domain.ErrNoCaptions
	}

	raw, err := e.get(ctx, track.BaseURL, false)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}

	return CleanTranscript(string(raw)), nil
}

// Title resolves the video title via the oEmbed endpoint.
func (e *YouTubeExtractor) Title(ctx context.Context, videoURL string) (string, error) {
	body, err := e.get(ctx, e.oembed+"?url="+url.QueryEscape(videoURL)+"&format=json", false)
	if err != nil {
		return "", fmt.Errorf("fetch oembed: %w", err)
	}

	var resp struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse oembed: %w", err)
	}
	return resp.Title, nil
}

func pickEnglishTrack(tracks []captionTrack) *captionTrack {
	for i, t := range tracks {
		if t.LanguageCode == "en" || t.LanguageCode == "en-US" || strings.Contains(t.VssID, ".en") {
			return &tracks[i]
		}
	}
	return nil
}

func (e *YouTubeExtractor) get(ctx context.Context, rawURL string, browserHeaders bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if browserHeaders {
		// The watch page only embeds captionTracks for browser user agents.
		req.Header.Set("User-Agent",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

var xmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// CleanTranscript strips caption markup down to plain text: XML tags removed,
// entities unescaped, paragraph breaks flattened.
func CleanTranscript(raw string) string {
	text := xmlTagRegex.ReplaceAllString(raw, "")
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "\n\n", " ")
	return strings.TrimSpace(text)
}
