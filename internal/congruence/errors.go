package congruence

import "errors"

var (
	// ErrNoSnippet is returned by an Enricher when the search page had no result.
	ErrNoSnippet = errors.New("no search result snippet")

	// ErrUnexpectedStatus is returned when the search endpoint does not answer 200.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidProxyAddress is returned when the proxy is neither "host:port"
	// nor a socks5:// URL with a port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: want host:port or socks5://host:port")
)
