package validators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// pageLimit is the indexer's page size; a shorter page means we've
// reached the end.
const pageLimit = 200

// Client counts validators for a withdrawal address via the public
// beacon chain indexer.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// Count pages through the indexer and returns the total number of
// validators whose withdrawal credentials point at address. Any
// network or HTTP failure on any page yields 0 — a partial count
// would imply precision the data doesn't have. A missing or non-list
// data field just ends the pagination.
func (c *Client) Count(ctx context.Context, address string) int {
	total := 0
	for offset := 0; ; offset += pageLimit {
		items, err := c.fetchPage(ctx, address, offset)
		if err != nil {
			c.log.Warn("validator count aborted", "address", address, "offset", offset, "err", err)
			return 0
		}
		if items < 0 {
			// Unexpected response shape: end of data, not an error.
			return total
		}
		total += items
		if items < pageLimit {
			return total
		}
	}
}

// fetchPage returns the number of items on one page, or -1 when the
// response shape is not the expected list.
func (c *Client) fetchPage(ctx context.Context, address string, offset int) (int, error) {
	url := fmt.Sprintf("%s/validator/withdrawalCredentials/%s?limit=%d&offset=%d",
		c.baseURL, address, pageLimit, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("indexer returned %s", resp.Status)
	}

	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	var items []json.RawMessage
	if len(body.Data) == 0 || json.Unmarshal(body.Data, &items) != nil {
		return -1, nil
	}
	return len(items), nil
}
