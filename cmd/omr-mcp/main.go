package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ironsheep/omr-sheet-mcp/internal/batch"
	"github.com/ironsheep/omr-sheet-mcp/internal/omr"
	"github.com/ironsheep/omr-sheet-mcp/internal/server"
	"github.com/ironsheep/omr-sheet-mcp/internal/source"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("omr-sheet-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol and reports)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	debug := os.Getenv("OMR_MCP_LOG_LEVEL") == "debug"

	dpi, err := source.DPIFromEnv()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "read" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := runRead(ctx, os.Args[2:], os.Stdout, dpi, debug); err != nil {
			stop()
			log.Fatalf("Read error: %v", err)
		}
		return
	}

	reader, err := newReader(os.Getenv("OMR_FORM_GEOMETRY"), debug)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if debug {
		log.Printf("OMR MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	server.Version = Version
	srv := server.New(server.Config{Reader: reader, DPI: dpi})
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printHelp() {
	fmt.Println("omr-sheet-mcp - MCP server for reading answer sheets")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  omr-mcp [options]                 Serve MCP over stdin/stdout")
	fmt.Println("  omr-mcp read [flags] files...     Read sheets and print a JSON report")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Read flags:")
	fmt.Println("  -geometry file   Form geometry YAML (overrides OMR_FORM_GEOMETRY)")
	fmt.Println("  -workers n       Sheets read at once (default: logical CPUs)")
	fmt.Println("  -annotate dir    Write each read sheet with filled bubbles outlined")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  OMR_MCP_LOG_LEVEL=debug      Enable debug logging")
	fmt.Println("  OMR_FORM_GEOMETRY=<path>     Form geometry YAML")
	fmt.Printf("  OMR_PDF_DPI=<n>              PDF render resolution (default %d)\n", source.DefaultDPI)
	fmt.Println()
	fmt.Println("The server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

// newReader builds the reader from a geometry file, or from the default
// geometry when path is empty.
func newReader(path string, debug bool) (*omr.Reader, error) {
	geo := omr.DefaultGeometry()
	if path != "" {
		var err error
		if geo, err = omr.LoadGeometry(path); err != nil {
			return nil, err
		}
	}
	return omr.NewReader(geo, omr.WithDebug(debug))
}

// runRead implements the read subcommand: it reads every page of every file
// and writes a JSON batch report to out.
func runRead(ctx context.Context, args []string, out io.Writer, dpi int, debug bool) error {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	geometryPtr := fs.String("geometry", os.Getenv("OMR_FORM_GEOMETRY"), "Form geometry YAML")
	workersPtr := fs.Int("workers", 0, "Sheets read at once (0: logical CPUs)")
	annotatePtr := fs.String("annotate", "", "Directory for annotated sheets")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("read: no input files")
	}

	reader, err := newReader(*geometryPtr, debug)
	if err != nil {
		return err
	}
	if *annotatePtr != "" {
		if err := os.MkdirAll(*annotatePtr, 0o755); err != nil {
			return fmt.Errorf("failed to create annotation directory: %w", err)
		}
	}

	set := source.OpenAll(fs.Args(), dpi)
	defer set.Close()

	runner := batch.NewRunner(reader, *workersPtr)
	if *annotatePtr != "" {
		runner.OnResult = func(_ int, r batch.Result) {
			if r.Reading == nil {
				return
			}
			if err := writeAnnotated(*annotatePtr, r); err != nil {
				log.Printf("Failed to write annotated %s: %v", r.Name, err)
			}
		}
	}
	if debug {
		log.Printf("Reading %d sheets with %d workers", len(set.Pages), runner.Workers())
	}

	results, err := runner.Run(ctx, batch.FromPages(set.Pages))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(batch.NewReport(results))
}

// writeAnnotated saves a reading's annotated image under dir.
func writeAnnotated(dir string, r batch.Result) error {
	f, err := os.Create(filepath.Join(dir, annotatedName(r.Name)))
	if err != nil {
		return err
	}
	if err := png.Encode(f, r.Reading.Annotated); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// annotatedName maps a sheet name ("scan.pdf#3", "a.jpg") to the file name
// of its annotated copy ("scan-p3.annotated.png", "a.annotated.png").
func annotatedName(name string) string {
	base := filepath.Base(name)
	page := ""
	if i := strings.LastIndex(base, "#"); i >= 0 {
		base, page = base[:i], "-p"+base[i+1:]
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + page + ".annotated.png"
}
