package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for outbound HTTP requests.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a single GET request to the specified URL with query
	// parameters. Returns the response body as bytes or an error. No
	// retries: retry policy belongs to the caller.
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)

	// -----------------------------------------------------------------------------

	// Do performs a request with an arbitrary method, extra headers and a
	// raw query string (used for signed exchange endpoints where parameter
	// order matters).
	Do(ctx context.Context, method, url string, headers map[string]string) ([]byte, error)
}
