package client

import (
	"context"

	"github.com/darmiel/guestgate/internal/api"
	"github.com/darmiel/guestgate/internal/buildinfo"
)

func (c *Client) Info(ctx context.Context) (*buildinfo.Info, string, error) {
	var info buildinfo.Info
	correlation, err := c.get(ctx, c.url().setPath(api.AboutRoute).build(), &info)
	return &info, correlation, err
}

// Config returns the UI configuration of the server.
func (c *Client) Config(ctx context.Context) (*api.ConfigResponse, string, error) {
	var cfg api.ConfigResponse
	correlation, err := c.get(ctx, c.url().setPath(api.ConfigRoute).build(), &cfg)
	return &cfg, correlation, err
}
