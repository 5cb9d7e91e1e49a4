// Package cli holds the imagededup command tree. Codecs that need cgo are
// injected by the binary so the commands stay testable without them.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"imagededup/config"
	"imagededup/dedup"
	"imagededup/imageprocessor"
	"imagededup/logging"
	"imagededup/signalhandler"
	"imagededup/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Dependencies are collaborators the binary wires in.
type Dependencies struct {
	// OpenCVLoader builds the OpenCV loader used for codec = "opencv" and as
	// the truncated-data fallback. Nil disables both.
	OpenCVLoader func() imageprocessor.ImageLoader
}

type scanFlags struct {
	configPath     string
	cutoff         int
	deleteFiles    bool
	hashSize       int
	workers        int
	codec          string
	rawPreviews    bool
	allowTruncated bool
	decodeTimeout  int
	table          bool
	quiet          bool
	debug          bool
	logFile        string
}

// NewRootCommand builds the imagededup command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	flags := &scanFlags{}

	rootCmd := &cobra.Command{
		Use:           "imagededup [folder]",
		Short:         "Find near-duplicate images in a folder and optionally delete the smaller copies",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, flags, deps)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	bindScanFlags(rootCmd, flags)

	rootCmd.AddCommand(newConfigCommand(flags))
	return rootCmd
}

func bindScanFlags(cmd *cobra.Command, flags *scanFlags) {
	defaults := config.Default()
	f := cmd.Flags()
	f.IntVar(&flags.cutoff, "cutoff", defaults.Cutoff, "Maximum number of differing fingerprint bits for a match")
	f.BoolVar(&flags.deleteFiles, "delete", defaults.DeleteFiles, "Delete the lower-resolution file of every match")
	f.IntVar(&flags.hashSize, "hash-size", defaults.HashSize, "Side of the fingerprint bit grid (power of two)")
	f.IntVar(&flags.workers, "workers", defaults.Workers, "Worker goroutines (0 = derive from CPU count)")
	f.StringVar(&flags.codec, "codec", defaults.Codec, "Primary decoder: native or opencv")
	f.BoolVar(&flags.rawPreviews, "raw", defaults.RawPreviews, "Fingerprint RAW files through embedded previews (needs exiftool)")
	f.BoolVar(&flags.allowTruncated, "allow-truncated", defaults.AllowTruncated, "Retry truncated files with OpenCV")
	f.IntVar(&flags.decodeTimeout, "decode-timeout", defaults.DecodeTimeoutSeconds, "Per-file decode bound in seconds (0 = none)")
	f.BoolVar(&flags.table, "table", false, "Print matches as a table")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "Print only the report")
	f.BoolVar(&flags.debug, "debug", false, "Write a debug log")
	f.StringVar(&flags.logFile, "logfile", "", "Debug log path (default imagededup.log)")
}

// applyFlags overrides file values with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags *scanFlags) error {
	changed := cmd.Flags().Changed
	if changed("cutoff") {
		cfg.Cutoff = flags.cutoff
	}
	if changed("delete") {
		cfg.DeleteFiles = flags.deleteFiles
	}
	if changed("hash-size") {
		cfg.HashSize = flags.hashSize
	}
	if changed("workers") {
		cfg.Workers = flags.workers
	}
	if changed("codec") {
		cfg.Codec = flags.codec
	}
	if changed("raw") {
		cfg.RawPreviews = flags.rawPreviews
	}
	if changed("allow-truncated") {
		cfg.AllowTruncated = flags.allowTruncated
	}
	if changed("decode-timeout") {
		cfg.DecodeTimeoutSeconds = flags.decodeTimeout
	}
	if changed("debug") {
		cfg.Logging.Debug = flags.debug
	}
	if changed("logfile") {
		cfg.Logging.File = flags.logFile
		cfg.Logging.Debug = true
	}
	return cfg.Validate()
}

func runScan(cmd *cobra.Command, args []string, flags *scanFlags, deps Dependencies) error {
	cfg, _, _, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg, flags); err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	folder := cfg.Folder
	if len(args) == 1 {
		folder = args[0]
	}
	if folder == "" {
		if !utils.IsInteractive(os.Stdin) {
			return errors.New("no folder to analyze was given")
		}
		folder, err = utils.PromptFolder(cmd.InOrStdin(), stdout)
		if err != nil {
			return err
		}
	}

	runID := uuid.NewString()
	if cfg.Logging.Debug {
		if err := logging.SetupLogger(cfg.Logging.File, runID); err != nil {
			fmt.Fprintf(stderr, "Warning: Failed to setup logging: %v\n", err)
		} else {
			defer logging.CloseLogger()
			if !flags.quiet {
				fmt.Fprintf(stderr, "Debug mode enabled. Logging to: %s\n", cfg.Logging.File)
			}
		}
	}

	registry, closeRegistry, err := buildRegistry(cfg, deps, stderr)
	if err != nil {
		return err
	}
	defer closeRegistry()

	ctx, stop := signalhandler.SetupHandler(cmd.Context())
	defer stop()

	opts := dedup.Options{
		Folder:      folder,
		Cutoff:      cfg.Cutoff,
		DeleteFiles: cfg.DeleteFiles,
		HashSize:    cfg.HashSize,
		Workers:     signalhandler.WorkerCount(cfg.Workers),
		Decode: imageprocessor.DecodeOptions{
			AllowTruncated: cfg.AllowTruncated,
			Timeout:        cfg.DecodeTimeout(),
		},
		Registry:  registry,
		DebugMode: cfg.Logging.Debug,
		RunID:     runID,
	}
	if !flags.quiet {
		opts.Output = stdout
		if utils.IsInteractive(os.Stderr) {
			opts.Progress = stderr
		}
	}

	result, err := dedup.Run(ctx, opts)
	if err != nil {
		if errors.Is(err, dedup.ErrLocationNotFound) {
			return fmt.Errorf("%s does not exist", folder)
		}
		if result == nil {
			return err
		}
		fmt.Fprintln(stderr, "Warning:", err)
	}

	printReport(stdout, result, reportOptions{table: flags.table, quiet: flags.quiet})
	return err
}

// buildRegistry assembles the loader chain the configuration asks for:
// RAW previews first, then OpenCV when it is the primary codec, then the
// native loader.
func buildRegistry(cfg *config.Config, deps Dependencies, stderr io.Writer) (*imageprocessor.ImageLoaderRegistry, func(), error) {
	var primary []imageprocessor.ImageLoader
	closers := []func(){}

	if cfg.RawPreviews {
		raw, err := imageprocessor.NewRawImageLoader()
		if err != nil {
			fmt.Fprintf(stderr, "Warning: RAW previews disabled: %v\n", err)
		} else {
			primary = append(primary, raw)
			closers = append(closers, func() { _ = raw.Close() })
		}
	}
	if cfg.Codec == config.CodecOpenCV {
		if deps.OpenCVLoader == nil {
			return nil, nil, errors.New("codec opencv is not available in this build")
		}
		primary = append(primary, deps.OpenCVLoader())
	}
	primary = append(primary, imageprocessor.NewStandardImageLoader())

	registry := imageprocessor.NewImageLoaderRegistryWith(primary...)
	if cfg.AllowTruncated {
		if deps.OpenCVLoader != nil {
			registry.RegisterFallback(deps.OpenCVLoader())
		} else {
			logging.DebugLog("No truncated-data fallback loader available")
		}
	}

	return registry, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
