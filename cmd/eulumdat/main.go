package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/photometric/internal/config"
	"github.com/banshee-data/photometric/internal/monitoring"
	"github.com/banshee-data/photometric/internal/version"
)

const program = "eulumdat"

var logf = monitoring.Component(program)

// errUsage marks a misuse that has already been reported with usage text.
var errUsage = errors.New("usage error")

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses global flags, dispatches to a subcommand and returns the process
// exit status.
func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet(program, flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { printUsage(stderr) }
	configPath := global.String("config", "", "JSON configuration file")
	quiet := global.Bool("quiet", false, "Suppress diagnostic logging")
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *quiet {
		monitoring.SetLogger(nil)
	}

	if global.NArg() < 1 {
		printUsage(stderr)
		return 1
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	a := &app{cfg: cfg, stdout: stdout, stderr: stderr}

	command := global.Arg(0)
	rest := global.Args()[1:]

	handlers := map[string]func([]string) error{
		"info":     a.handleInfo,
		"validate": a.handleValidate,
		"convert":  a.handleConvert,
		"diagram":  a.handleDiagram,
		"sample":   a.handleSample,
		"calc":     a.handleCalc,
		"bug":      a.handleBUG,
		"batch":    a.handleBatch,
		"catalog":  a.handleCatalog,
		"report":   a.handleReport,
		"plot":     a.handlePlot,
	}

	switch command {
	case "version":
		fmt.Fprintln(stdout, version.String(program))
		return 0
	case "help":
		printUsage(stdout)
		return 0
	}

	handler, ok := handlers[command]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return 1
	}
	if err := handler(rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `eulumdat - EULUMDAT (LDT) and IES photometric file tool

Usage: eulumdat [--config file.json] [--quiet] <command> [options]

Commands:
  info       Show luminaire information (--verbose for angle and intensity tables)
  validate   Check a file for structural and photometric problems
  convert    Convert between LDT and IES (target from the output extension)
  diagram    Render a polar, cartesian, butterfly or heatmap SVG diagram
  sample     Sample intensity at a C/gamma angle, or print sampled curves
  calc       Beam and field angles, CIE flux code and 30° zonal lumens
  bug        BUG rating (TM-15-11) and zone lumens
  batch      Convert every file in a directory
  catalog    Store, list and export files in a sqlite catalog
  report     Write an interactive HTML report
  plot       Write an intensity curve plot (PNG, SVG or PDF)
  version    Show version information
  help       Show this help message

Examples:
  eulumdat info downlight.ldt
  eulumdat validate --strict downlight.ies
  eulumdat convert downlight.ldt downlight.ies
  eulumdat diagram --type butterfly --dark -o butterfly.svg downlight.ldt
  eulumdat sample -c 90 -g 30 downlight.ldt
  eulumdat calc --type beam downlight.ldt
  eulumdat bug streetlight.ies
  eulumdat batch --format ies --recursive -o out/ photometry/
  eulumdat catalog add downlight.ldt
  eulumdat report -o downlight.html downlight.ldt
  eulumdat plot -o downlight.png downlight.ldt`)
}

// parseFlags parses a subcommand's flags and checks the positional argument
// count. Misuse prints the flag set's usage to stderr.
func (a *app) parseFlags(fs *flag.FlagSet, args []string, positional ...string) error {
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() != len(positional) {
		fmt.Fprintf(a.stderr, "Usage: %s %s [options]", program, fs.Name())
		for _, p := range positional {
			fmt.Fprintf(a.stderr, " <%s>", p)
		}
		fmt.Fprintln(a.stderr)
		fs.PrintDefaults()
		return errUsage
	}
	return nil
}
