package app

import (
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "condanest" {
		t.Errorf("expected Use to be 'condanest', got '%s'", RootCmd.Use)
	}
	if RootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}
	if RootCmd.Long == "" {
		t.Error("expected Long description to be set")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	commands := RootCmd.Commands()

	expected := []string{
		"envs", "create [name]", "import-folder <dir>",
		"clone <env> <new-name>", "rename <env> <new-name>", "delete <env>",
		"export <env>", "export-all <dir>",
		"packages <env>", "search <spec>", "install <env> <spec>...",
		"uninstall <env> <name>...", "update <env> [name]...",
		"channels", "clean", "disk-usage", "history", "doctor",
		"serve", "shell <env>",
	}

	found := make(map[string]bool)
	for _, cmd := range commands {
		found[cmd.Use] = true
	}
	for _, use := range expected {
		if !found[use] {
			t.Errorf("expected command %q to be registered", use)
		}
	}
}

func TestChannelsSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, cmd := range channelsCmd.Commands() {
		found[cmd.Use] = true
	}
	for _, use := range []string{"set <channel>...", "priority <strict|flexible>"} {
		if !found[use] {
			t.Errorf("expected channels subcommand %q", use)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"config-dir", "db", "log-file", "verbose"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestGetDBPath_FlagOverride(t *testing.T) {
	oldDBPath := flagDBPath
	flagDBPath = "/tmp/override.db"
	defer func() { flagDBPath = oldDBPath }()

	path, err := getDBPath()
	if err != nil {
		t.Fatalf("getDBPath() failed: %v", err)
	}
	if path != "/tmp/override.db" {
		t.Errorf("getDBPath() = %q, want the flag value", path)
	}
}

func TestGetDBPath_Default(t *testing.T) {
	oldDBPath := flagDBPath
	flagDBPath = ""
	defer func() { flagDBPath = oldDBPath }()

	t.Setenv("HOME", t.TempDir())

	path, err := getDBPath()
	if err != nil {
		t.Fatalf("getDBPath() failed: %v", err)
	}
	if !strings.HasSuffix(path, "condanest.db") {
		t.Errorf("getDBPath() = %q, want a condanest.db path", path)
	}
}

func TestDestructiveCommandsRequireConfirmFlag(t *testing.T) {
	for _, cmd := range []struct {
		name string
		has  func(string) bool
	}{
		{"delete", func(f string) bool { return deleteCmd.Flags().Lookup(f) != nil }},
		{"rename", func(f string) bool { return renameCmd.Flags().Lookup(f) != nil }},
		{"clean", func(f string) bool { return cleanCmd.Flags().Lookup(f) != nil }},
	} {
		if !cmd.has("yes") {
			t.Errorf("%s should offer a --yes flag for non-interactive use", cmd.name)
		}
	}
}
