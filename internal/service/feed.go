package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxFeedSize caps how much of a remote feed body is read.
const maxFeedSize = 10 << 20

// Feed is a supplier price list: the shop it belongs to, the categories it
// references by feed-local id, and the goods themselves.
type Feed struct {
	Shop       string         `yaml:"shop"`
	Categories []FeedCategory `yaml:"categories"`
	Goods      []FeedGood     `yaml:"goods"`
}

// FeedCategory carries a feed-local category id; goods reference it through
// their category field. The id has no meaning outside a single feed.
type FeedCategory struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// FeedGood is one price-list row.
type FeedGood struct {
	Name       string         `yaml:"name"`
	Category   int            `yaml:"category"`
	Price      float64        `yaml:"price"`
	PriceRRC   float64        `yaml:"price_rrc"`
	Quantity   int            `yaml:"quantity"`
	Parameters map[string]any `yaml:"parameters"`
}

// ParseFeed decodes a YAML feed document and validates its required
// top-level keys.
func ParseFeed(data []byte) (*Feed, error) {
	var f Feed
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if strings.TrimSpace(f.Shop) == "" {
		return nil, fmt.Errorf("%w: feed is missing the shop name", ErrValidation)
	}
	return &f, nil
}

// LoadFeed reads and parses a feed from a local YAML file.
func LoadFeed(path string) (*Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return ParseFeed(data)
}

// FetchFeed downloads and parses a feed from a remote URL.
func FetchFeed(ctx context.Context, client *http.Client, rawURL string) (*Feed, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid feed url", ErrValidation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("fetch feed: empty response body")
	}
	return ParseFeed(data)
}

// parameterString renders a feed parameter value as the stored string form.
// Booleans become yes/no tokens; everything else uses its default rendering.
func parameterString(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
