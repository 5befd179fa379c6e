package ingest

import (
	"context"
	"time"

	"github.com/angelcm/marketing-intel/internal/utils"
)

// DefaultRetry: 3 attempts, 100ms doubling, up to 150ms jitter.
var DefaultRetry = utils.NewBackoff(100*time.Millisecond, 2)

// FetchWithRetry downloads url, retrying transport errors and non-2xx replies.
func FetchWithRetry(ctx context.Context, c HTTPClient, url string, b utils.Backoff) ([]byte, error) {
	var body []byte
	err := b.Do(ctx, func(int) error {
		var err error
		body, err = getBody(ctx, c, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
