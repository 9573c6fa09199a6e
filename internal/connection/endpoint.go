package connection

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultPath is the server's WebSocket route.
const DefaultPath = "/ws"

// EndpointFromPage derives the WebSocket URL from the address the game page
// was served from: https becomes wss, http becomes ws, and path replaces the
// page path. ws and wss URLs are returned unchanged.
func EndpointFromPage(pageURL, path string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("page url %q has no host", pageURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		return u.String(), nil
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u.Path = path
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
