package cmd

import (
	"fmt"
	"time"

	"insync/internal/config"
	"insync/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands selected on the command line.
const (
	CommandRun     = "run"
	CommandList    = "list"
	CommandAnalyze = "analyze"
)

// Options is the parsed command line. Flag values only override the
// configuration file when they were given explicitly; see Apply.
type Options struct {
	Command    string // Empty when only help or version was printed.
	ConfigPath string
	File       string // WAV file for the analyze command.
	PickDevice bool
	Verbose    bool

	deviceID        int
	framesPerBuffer int
	sampleRate      float64
	interval        time.Duration
	threshold       float64
	lowLatency      bool
	record          bool
	output          string

	changed map[string]bool
}

// ParseArgs parses args (without the program name).
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.Get()
	options := &Options{changed: make(map[string]bool)}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Spawn enemies in time with the sound around you",
		Long:          "insync listens to a microphone, detects onsets with a spectral flux novelty curve\nand spawns enemies on every onset and on a fixed timer.",
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandRun
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandList
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "analyze FILE",
		Short: "Run a WAV recording through onset detection and print the onsets",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandAnalyze
			options.File = args[0]
		},
	})

	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&options.ConfigPath, "config", "f", "",
		"Configuration file (default: insync.yaml or config.yaml in the working directory)")

	// Audio Device Configuration
	flags.IntVarP(&options.deviceID, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	flags.IntVarP(&options.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"Frames per buffer, also the FFT size (power of two)")
	flags.Float64VarP(&options.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate in Hz, 0 uses the device default")
	flags.BoolVarP(&options.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	flags.BoolVarP(&options.PickDevice, "pick", "p", false,
		"Choose the input device interactively")

	// Detection and spawning
	flags.DurationVarP(&options.interval, "interval", "i", config.DefaultSpawnInterval,
		"Interval between radial spawn batches")
	flags.Float64VarP(&options.threshold, "threshold", "t", config.DefaultThreshold,
		"Novelty above the moving average required for a peak")

	// Recording Configuration
	flags.BoolVarP(&options.record, "record", "r", false,
		"Record the microphone to a WAV file")
	flags.StringVarP(&options.output, "output", "o", "",
		"Recording file name (default: timestamped file in the recording directory)")

	// Debug Configuration
	flags.BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	// Subcommands parse into their own flag set; Changed is shared.
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			options.changed[f.Name] = true
		}
	})
	return options, nil
}

// Apply copies explicitly set flags into cfg and validates the result.
func (o *Options) Apply(cfg *config.Config) error {
	if o.changed["device"] {
		cfg.Audio.InputDevice = o.deviceID
	}
	if o.changed["frames-per-buffer"] {
		cfg.Audio.FramesPerBuffer = o.framesPerBuffer
	}
	if o.changed["sample-rate"] {
		cfg.Audio.SampleRate = o.sampleRate
	}
	if o.changed["low-latency"] {
		cfg.Audio.LowLatency = o.lowLatency
	}
	if o.changed["interval"] {
		cfg.Spawn.Interval = o.interval
	}
	if o.changed["threshold"] {
		cfg.Analysis.Threshold = o.threshold
	}
	if o.changed["record"] {
		cfg.Recording.Enabled = o.record
	}
	if o.changed["output"] {
		cfg.Recording.File = o.output
		cfg.Recording.Enabled = true
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid command line: %w", err)
	}
	return nil
}
