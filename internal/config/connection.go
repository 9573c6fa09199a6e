package config

import (
	"fmt"

	"github.com/onenight/partyclient/internal/connection"
)

// Endpoint resolves the WebSocket URL: server.endpoint if set, otherwise
// derived from server.page_url. An http(s) endpoint is treated like a page
// URL and takes server.path; a ws(s) endpoint is used as is.
func (c *Config) Endpoint() (string, error) {
	if c.Server.Endpoint != "" {
		return connection.EndpointFromPage(c.Server.Endpoint, c.Server.Path)
	}
	return connection.EndpointFromPage(c.Server.PageURL, c.Server.Path)
}

// Transport builds the transport settings for a session.
func (c *Config) Transport() (connection.TransportConfig, error) {
	url, err := c.Endpoint()
	if err != nil {
		return connection.TransportConfig{}, fmt.Errorf("resolve endpoint: %w", err)
	}

	return connection.TransportConfig{
		URL:              url,
		HandshakeTimeout: c.Connection.HandshakeTimeout,
		WriteTimeout:     c.Connection.WriteTimeout,
		PingInterval:     c.Connection.PingInterval,
		PingTimeout:      c.Connection.PingTimeout,
		ReadLimit:        c.Connection.ReadLimit,
		BufferSize:       c.Connection.FrameBuffer,
	}, nil
}
