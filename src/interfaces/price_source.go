package interfaces

import "context"

// -----------------------------------------------------------------------------
// IPriceSource defines the contract for fetching current prices from an
// external market-data provider.
// -----------------------------------------------------------------------------
// The source is interchangeable behind this one contract so that swapping the
// upstream provider never touches the relay or the registry.

type IPriceSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchPrices returns the latest trade price for each requested symbol,
	// as the decimal string the upstream reported so no precision is lost.
	// One outbound call per invocation, no internal retries: the caller
	// decides whether and when to retry. Network or parse failures come
	// back wrapping the sentinel error the implementation exposes.
	FetchPrices(ctx context.Context, symbols []string) (map[string]string, error)
}
