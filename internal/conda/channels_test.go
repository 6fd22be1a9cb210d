package conda

import (
	"context"
	"testing"
)

const mockChannelConfigJSON = `{
  "channels": ["conda-forge", "bioconda", "defaults"],
  "channel_priority": "strict"
}`

// TestGetChannels parses the channel order and priority mode.
func TestGetChannels(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) ([]byte, error) {
		return []byte(mockChannelConfigJSON), nil
	}}
	client := NewClient(&BackendInfo{}, runner)

	cfg, err := client.GetChannels(context.Background())
	if err != nil {
		t.Fatalf("GetChannels() failed: %v", err)
	}
	if len(cfg.Channels) != 3 || cfg.Channels[0] != "conda-forge" {
		t.Errorf("Channels = %v", cfg.Channels)
	}
	if cfg.PriorityMode != PriorityStrict {
		t.Errorf("PriorityMode = %q, want strict", cfg.PriorityMode)
	}
}

// TestGetChannels_DefaultMode falls back to flexible when the backend
// reports no priority mode.
func TestGetChannels_DefaultMode(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) ([]byte, error) {
		return []byte(`{"channels": ["defaults"], "channel_priority": ""}`), nil
	}}
	client := NewClient(&BackendInfo{}, runner)

	cfg, err := client.GetChannels(context.Background())
	if err != nil {
		t.Fatalf("GetChannels() failed: %v", err)
	}
	if cfg.PriorityMode != PriorityFlexible {
		t.Errorf("PriorityMode = %q, want flexible", cfg.PriorityMode)
	}
}

// TestSetChannels clears the key then appends in the given order, and
// tolerates the key not existing yet.
func TestSetChannels(t *testing.T) {
	runner := &fakeRunner{}
	runner.handler = func(args []string) ([]byte, error) {
		if len(args) >= 2 && args[1] == "--remove-key" {
			return nil, &CommandError{Args: args, ExitCode: 1, Stderr: "CondaKeyError: 'channels': key 'channels' is not in the config file"}
		}
		return nil, nil
	}
	client := NewClient(&BackendInfo{}, runner)

	if err := client.SetChannels(context.Background(), []string{"conda-forge", "defaults"}); err != nil {
		t.Fatalf("SetChannels() failed: %v", err)
	}

	if !runner.called("config", "--remove-key", "channels") {
		t.Error("expected the channels key to be cleared first")
	}
	if !runner.called("config", "--append", "channels", "conda-forge") {
		t.Error("expected conda-forge appended")
	}
	if !runner.called("config", "--append", "channels", "defaults") {
		t.Error("expected defaults appended")
	}

	// remove-key first, then appends in order
	if len(runner.calls) != 3 || runner.calls[1][3] != "conda-forge" || runner.calls[2][3] != "defaults" {
		t.Errorf("unexpected call order: %v", runner.calls)
	}
}

// TestSetChannels_Empty rejects an empty channel list.
func TestSetChannels_Empty(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) ([]byte, error) { return nil, nil }}
	client := NewClient(&BackendInfo{}, runner)

	if err := client.SetChannels(context.Background(), nil); err == nil {
		t.Error("SetChannels(nil) should fail")
	}
	if len(runner.calls) != 0 {
		t.Errorf("backend invoked for empty channel list: %v", runner.calls)
	}
}

// TestSetChannelPriorityMode_Invalid rejects unknown modes without
// invoking the backend.
func TestSetChannelPriorityMode_Invalid(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) ([]byte, error) { return nil, nil }}
	client := NewClient(&BackendInfo{}, runner)

	if err := client.SetChannelPriorityMode(context.Background(), "aggressive"); err == nil {
		t.Error(`SetChannelPriorityMode("aggressive") should fail`)
	}
	if len(runner.calls) != 0 {
		t.Errorf("backend invoked for invalid mode: %v", runner.calls)
	}

	if err := client.SetChannelPriorityMode(context.Background(), PriorityStrict); err != nil {
		t.Errorf("SetChannelPriorityMode(strict) failed: %v", err)
	}
	if !runner.called("config", "--set", "channel_priority", "strict") {
		t.Errorf("unexpected invocation: %v", runner.calls)
	}
}
