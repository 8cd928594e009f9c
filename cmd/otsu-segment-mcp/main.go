package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ironsheep/otsu-segment-mcp/internal/config"
	"github.com/ironsheep/otsu-segment-mcp/internal/imaging"
	"github.com/ironsheep/otsu-segment-mcp/internal/logger"
	"github.com/ironsheep/otsu-segment-mcp/internal/segment"
	"github.com/ironsheep/otsu-segment-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	args := os.Args[1:]
	configPath := ""

	// --config may precede the subcommand.
	if len(args) > 1 && (args[0] == "--config" || args[0] == "-config") {
		configPath = args[1]
		args = args[2:]
	}

	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("otsu-segment-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage(os.Stdout)
			return
		case "segment":
			cfg, log := setup(configPath)
			if err := runSegment(cfg, log, args[1:], os.Stdin, os.Stdout); err != nil {
				log.Error().Err(err).Msg("segmentation failed")
				os.Exit(1)
			}
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown argument: %s\n\n", args[0])
			printUsage(os.Stderr)
			os.Exit(2)
		}
	}

	cfg, log := setup(configPath)
	log.Debug().
		Str("version", Version).
		Str("built", BuildTime).
		Str("commit", GitCommit).
		Msg("starting MCP server")

	server.Version = Version
	srv := server.New(cfg, log)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// setup loads the configuration and builds the stderr logger; stdout is
// reserved for protocol traffic and segmented images.
func setup(configPath string) (*config.Config, zerolog.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	return cfg, log
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "otsu-segment-mcp - MCP server for Otsu black/white image segmentation")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  otsu-segment-mcp [--config file.yaml]                  Run the MCP server on stdin/stdout")
	fmt.Fprintln(w, "  otsu-segment-mcp [--config file.yaml] segment [flags] <in> <out>")
	fmt.Fprintln(w, "                                                         Segment one image ('-' for stdin/stdout)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  OTSU_SEGMENT_CONFIG=path              YAML configuration file")
	fmt.Fprintln(w, "  OTSU_SEGMENT_LOG_LEVEL=debug          debug, info, warn, error")
	fmt.Fprintln(w, "  OTSU_SEGMENT_LOG_FORMAT=json          console or json")
	fmt.Fprintln(w, "  OTSU_SEGMENT_MAX_INPUT_BYTES=1048576  Reject larger inputs (0 disables)")
	fmt.Fprintln(w, "  OTSU_SEGMENT_MAX_PIXELS=67108864      Reject images declaring more pixels")
	fmt.Fprintln(w, "  OTSU_SEGMENT_POLARITY=bright-white    bright-white or bright-black")
	fmt.Fprintln(w, "  OTSU_SEGMENT_GRAYSCALE=luminance      luminance, average or lightness")
	fmt.Fprintln(w, "  OTSU_SEGMENT_BLUR_RADIUS=0            Gaussian pre-blur radius")
	fmt.Fprintln(w, "  OTSU_SEGMENT_FALLBACK_THRESHOLD=      Threshold for single-color images")
}

// runSegment implements the segment subcommand.
func runSegment(cfg *config.Config, log zerolog.Logger, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("segment", flag.ContinueOnError)
	seg := cfg.Segmentation
	fs.StringVar(&seg.Polarity, "polarity", seg.Polarity, "bright-white or bright-black")
	fs.StringVar(&seg.Grayscale, "grayscale", seg.Grayscale, "luminance, average or lightness")
	fs.Float64Var(&seg.BlurRadius, "blur", seg.BlurRadius, "Gaussian pre-blur radius (0 disables)")
	fallback := fs.Int("fallback", -1, "threshold for single-color images (-1 fails instead)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("segment expects <in> and <out>, got %d arguments", fs.NArg())
	}
	if *fallback >= 0 {
		seg.FallbackThreshold = fallback
	}

	opts, err := seg.Options()
	if err != nil {
		return err
	}
	opts.MaxPixels = cfg.MaxPixels

	in, out := fs.Arg(0), fs.Arg(1)
	var data []byte
	if in == "-" {
		data, err = imaging.ReadAll(stdin, cfg.MaxInputBytes)
	} else {
		data, err = imaging.ReadFile(in, cfg.MaxInputBytes)
	}
	if err != nil {
		return err
	}

	res, png, err := segment.SegmentWithResult(data, opts)
	if err != nil {
		return err
	}

	if out == "-" {
		if _, err := stdout.Write(png); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	log.Info().
		Str("input", in).
		Str("output", out).
		Int("width", res.Width).
		Int("height", res.Height).
		Uint8("threshold", res.Threshold).
		Float64("score", res.Score).
		Bool("fallback", res.Fallback).
		Msg("image segmented")
	return nil
}
