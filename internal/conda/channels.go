package conda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Channel priority modes understood by the backend itself; this layer only
// writes the setting.
const (
	PriorityStrict   = "strict"
	PriorityFlexible = "flexible"
)

// GetChannels returns the global channel order plus the channel_priority
// mode. The first channel is the highest priority.
func (c *Client) GetChannels(ctx context.Context) (*ChannelConfig, error) {
	args := []string{"config", "--show", "channels", "channel_priority", "--json"}
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var shown struct {
		Channels        []string `json:"channels"`
		ChannelPriority string   `json:"channel_priority"`
	}
	if err := json.Unmarshal(out, &shown); err != nil {
		return nil, &ParseError{Args: args, Raw: string(out), Err: err}
	}

	mode := strings.ToLower(strings.TrimSpace(shown.ChannelPriority))
	if mode == "" {
		mode = PriorityFlexible
	}
	return &ChannelConfig{Channels: shown.Channels, PriorityMode: mode}, nil
}

// SetChannels replaces the global channel order. The backend stores
// channels as a priority list, so the existing key is cleared first and
// the new order appended top-down.
func (c *Client) SetChannels(ctx context.Context, channels []string) error {
	if len(channels) == 0 {
		return fmt.Errorf("channel list must not be empty")
	}

	if _, err := c.runner.Run(ctx, "config", "--remove-key", "channels"); err != nil {
		// The key may not exist yet; only a missing key is tolerable.
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) || !strings.Contains(cmdErr.Stderr, "key") {
			return err
		}
	}

	for _, channel := range channels {
		if _, err := c.runner.Run(ctx, "config", "--append", "channels", channel); err != nil {
			return err
		}
	}
	return nil
}

// SetChannelPriorityMode sets channel_priority to "strict" or "flexible".
func (c *Client) SetChannelPriorityMode(ctx context.Context, mode string) error {
	if mode != PriorityStrict && mode != PriorityFlexible {
		return fmt.Errorf("invalid channel priority mode %q", mode)
	}
	_, err := c.runner.Run(ctx, "config", "--set", "channel_priority", mode)
	return err
}
