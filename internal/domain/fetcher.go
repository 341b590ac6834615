package domain

import "context"

// Fetcher retrieves a raw provider document. Implementations return a
// *TransportError when the provider cannot be reached or answers non-2xx.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
