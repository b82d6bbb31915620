package definition

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultDatamuseURL is the public Datamuse API endpoint
const DefaultDatamuseURL = "https://api.datamuse.com"

// DatamuseFetcher resolves definitions from the Datamuse word API
type DatamuseFetcher struct {
	baseURL string
	client  *http.Client
}

var _ Fetcher = (*DatamuseFetcher)(nil)

// NewDatamuseFetcher creates a fetcher against the given base URL.
// An empty base URL uses the public API.
func NewDatamuseFetcher(baseURL string) *DatamuseFetcher {
	if baseURL == "" {
		baseURL = DefaultDatamuseURL
	}
	return &DatamuseFetcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type datamuseEntry struct {
	Word string   `json:"word"`
	Defs []string `json:"defs"`
}

// Fetch looks the word up. A successful response with no definitions
// returns Unavailable with no error, which is cacheable; transport and
// decode failures return an error and must not be cached.
func (f *DatamuseFetcher) Fetch(ctx context.Context, word string) (string, error) {
	query := url.Values{}
	query.Set("sp", word)
	query.Set("md", "d")
	query.Set("max", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/words?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("datamuse: unexpected status %d", resp.StatusCode)
	}

	var entries []datamuseEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return "", fmt.Errorf("datamuse: decoding response: %w", err)
	}

	if len(entries) == 0 || len(entries[0].Defs) == 0 {
		return Unavailable, nil
	}

	// Definitions come as "<part-of-speech>\t<text>"
	def := entries[0].Defs[0]
	if _, text, found := strings.Cut(def, "\t"); found {
		return text, nil
	}
	return def, nil
}
