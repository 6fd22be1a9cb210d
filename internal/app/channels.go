package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/output"
)

var (
	channelsCmd = &cobra.Command{
		Use:   "channels",
		Short: "Show the configured channels and priority mode",
		Args:  cobra.NoArgs,
		RunE:  runChannels,
	}

	channelsSetCmd = &cobra.Command{
		Use:   "set <channel>...",
		Short: "Replace the channel list",
		Long: `Replace the configured channel list. Channels are searched in
the order given; the first argument has the highest priority.`,
		Example: `  condanest channels set conda-forge
  condanest channels set conda-forge bioconda defaults`,
		Args: cobra.MinimumNArgs(1),
		RunE: runChannelsSet,
	}

	channelsPriorityCmd = &cobra.Command{
		Use:   "priority <strict|flexible>",
		Short: "Set the channel priority mode",
		Args:  cobra.ExactArgs(1),
		RunE:  runChannelsPriority,
	}
)

func init() {
	channelsCmd.AddCommand(channelsSetCmd)
	channelsCmd.AddCommand(channelsPriorityCmd)
	RootCmd.AddCommand(channelsCmd)
}

func runChannels(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	cfg, err := rt.client().GetChannels(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(output.RenderChannels(cfg))
	return nil
}

func runChannelsSet(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.client().SetChannels(cmd.Context(), args); err != nil {
		return err
	}

	fmt.Printf("Channels set: %s\n", strings.Join(args, ", "))
	return nil
}

func runChannelsPriority(cmd *cobra.Command, args []string) error {
	mode := args[0]
	if mode != conda.PriorityStrict && mode != conda.PriorityFlexible {
		return fmt.Errorf("invalid priority mode %q (want %s or %s)", mode, conda.PriorityStrict, conda.PriorityFlexible)
	}

	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.client().SetChannelPriorityMode(cmd.Context(), mode); err != nil {
		return err
	}

	fmt.Printf("Channel priority set to %s\n", mode)
	return nil
}
