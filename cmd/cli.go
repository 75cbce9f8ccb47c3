// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pianotune/pkg/build"
)

// Options collects everything parsed from the command line: the
// one-off subcommand to run (if any) and the note target to arm the
// analyzer with when running the live measurement loop.
type Options struct {
	ConfigPath string
	Verbose    bool

	Command string // "" (run), "devices", "replay"

	ReplayPath string

	TargetMIDI int
	HasTarget  bool
}

// ParseArgs builds the root Cobra command and executes it against
// os.Args, returning the resolved Options.
func ParseArgs() (*Options, error) {
	buildInfo := build.GetBuildFlags()
	opts := &Options{TargetMIDI: -1}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time piano tuning measurement engine",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.HasTarget = opts.TargetMIDI >= 0
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "f", "",
		"Path to a YAML configuration file. Defaults to ./config.yaml if present.")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"Show verbose (debug level) logging")
	rootCmd.PersistentFlags().IntVarP(&opts.TargetMIDI, "target-midi", "m", -1,
		"MIDI note number to arm the analyzer for (21-108). Required to start measuring.")

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = "devices"
			return nil
		},
	}
	rootCmd.AddCommand(devicesCmd)

	replayCmd := &cobra.Command{
		Use:   "replay [wav file]",
		Short: "Feed a recorded WAV file through the analyzer instead of a live input device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = "replay"
			opts.ReplayPath = args[0]
			opts.HasTarget = opts.TargetMIDI >= 0
			return nil
		},
	}
	rootCmd.AddCommand(replayCmd)

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	if opts.Command == "replay" && !opts.HasTarget {
		return nil, fmt.Errorf("replay requires --target-midi")
	}

	return opts, nil
}
