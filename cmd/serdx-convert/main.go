// Command serdx-convert converts files between the formats of the
// fileio catalog, for example JSON to YAML or JSONL to CSV.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hengadev/serdx"
	"github.com/hengadev/serdx/fileio"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "convert":
		convertCommand(os.Args[2:])
	case "formats":
		formatsCommand()
	case "version":
		versionCommand()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  convert   Convert a file between formats\n")
	fmt.Fprintf(os.Stderr, "  formats   List the format catalog\n")
	fmt.Fprintf(os.Stderr, "  version   Show version information\n")
	fmt.Fprintf(os.Stderr, "\nRun '%s convert -h' for conversion options.\n", os.Args[0])
}

func convertCommand(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	from := fs.String("from", envDefault("SERDX_FROM", ""), "Source format name (default: inferred from input path)")
	to := fs.String("to", envDefault("SERDX_TO", ""), "Target format name (default: inferred from output path)")
	pretty := fs.Bool("pretty", false, "Indent JSON output")
	compress := fs.String("compress", envDefault("SERDX_COMPRESS", ""), "Compress output: gzip or zstd")
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Parse(args)

	if fs.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s convert [options] <input> <output>\n", os.Args[0])
		os.Exit(1)
	}
	input, output := fs.Arg(0), fs.Arg(1)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var loadOpts []fileio.Option
	if *from != "" {
		f, ok := fileio.FormatNamed(*from)
		if !ok {
			fail(logger, "unknown source format", "format", *from)
		}
		loadOpts = append(loadOpts, fileio.WithFormat(f))
	}

	obj, err := fileio.Load(input, loadOpts...)
	if err != nil {
		fail(logger, "load failed", "path", input, "error", err)
	}
	logger.Debug("loaded input", "path", input)

	target := resolveTarget(logger, output, *to, *pretty)
	dumpOpts := []fileio.Option{fileio.WithFormat(target)}
	if *compress != "" {
		c, ok := compressorNamed(*compress)
		if !ok {
			fail(logger, "unknown compressor", "compressor", *compress)
		}
		dumpOpts = append(dumpOpts, fileio.WithCompressor(c))
	}

	if err := fileio.Dump(output, obj, dumpOpts...); err != nil {
		fail(logger, "dump failed", "path", output, "error", err)
	}
	logger.Debug("wrote output", "path", output, "format", target.Name)
}

// resolveTarget picks the output format from the -to flag or the output
// extension, upgrading plain JSON when -pretty is set.
func resolveTarget(logger *slog.Logger, output, to string, pretty bool) *fileio.Format {
	var target *fileio.Format
	if to != "" {
		f, ok := fileio.FormatNamed(to)
		if !ok {
			fail(logger, "unknown target format", "format", to)
		}
		target = f
	} else {
		target, _ = fileio.Infer(output)
		if target == nil {
			fail(logger, "cannot infer target format", "path", output)
		}
	}
	if pretty && target == fileio.JSON {
		target = fileio.JSONPretty
	}
	return target
}

func formatsCommand() {
	fmt.Printf("%-14s %-12s %-6s %-6s %s\n", "NAME", "EXTENSIONS", "LINES", "BINARY", "SERIALIZE")
	for _, f := range fileio.Formats() {
		fmt.Printf("%-14s %-12s %-6v %-6v %v\n", f.Name, strings.Join(f.Exts, ","), f.LineMode, f.Binary, f.Serialize)
	}
	fmt.Printf("\nCompressors:\n")
	for _, c := range fileio.Compressors() {
		fmt.Printf("  %-8s .%s\n", c.Name, strings.Join(c.Exts, ", ."))
	}
}

func versionCommand() {
	fmt.Printf("serdx-convert %s\n", serdx.VersionInfo())
}

func compressorNamed(name string) (*fileio.Compressor, bool) {
	for _, c := range fileio.Compressors() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(logger *slog.Logger, msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
