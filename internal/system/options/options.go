// Released under an MIT license. See LICENSE.

// Package options is the one place command-line flags and environment
// variables are read.
package options

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docker/go-units"
	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Action is what to do with the workspace image.
type Action int

// Workspace actions.
const (
	Ask Action = iota
	Save
	NoSave
)

//nolint:gochecknoglobals
var (
	args        []string
	command     string
	encoding    string
	interactive bool
	noEcho      bool
	quiet       bool
	restoreData bool
	restoreHist bool
	saveAction  Action
	script      string
	verbose     bool

	minNSize int64
	minVSize int64

	maxPPSize      int
	maxConnections int

	usage = `rho

Usage:
  rho [options] [--args ARGUMENTS...]

Arguments:
  ARGUMENTS  Passed through to the running script unexamined.

Options:
  -f FILE, --file=FILE   Run expressions from FILE, then exit.
  -e EXPR                Run EXPR, then exit.
  --save                 Save the workspace at the end of the session.
  --no-save              Don't save the workspace.
  --restore              Restore the saved workspace at startup.
  --no-restore           Don't restore the workspace or the history.
  --no-restore-data      Don't restore the workspace.
  --no-restore-history   Don't restore the history file.
  --no-environ           Don't read the environment files.
  --no-site-file         Don't read the site profile.
  --no-init-file         Don't read the user profile.
  --vanilla              No startup files, no restore, no save.
  -q, --quiet            Don't print the startup banner.
  --silent               Same as --quiet.
  -s, --no-echo          Run as quietly as possible.
  -i, --interactive      Force an interactive session.
  --encoding=ENC         Declare the encoding of stdin.
  --min-nsize=N          Initial node-heap size. Suffixes K, M, G.
  --min-vsize=N          Initial vector-heap size. Suffixes K, M, G.
  --max-ppsize=N         Protect-stack size (10000 to 500000).
  --max-connections=N    Connection limit (128 to 4096).
  --verbose              Print information about progress.
  -h, --help             Display this help.
  -v, --version          Print rho version.
  --args                 Stop processing; the rest is for the script.
`
)

// Parse reads the command line. Legacy single-dash forms are dropped
// with a deprecation warning before docopt sees them.
func Parse() {
	opts, err := docopt.ParseArgs(usage, legacy(os.Args[1:]), version())
	if err != nil {
		// Error in the usage doc. This should never happen.
		panic(err.Error())
	}

	script, _ = opts.String("--file")
	command, _ = opts.String("-e")
	encoding, _ = opts.String("--encoding")

	if len(encoding) > 30 {
		fatal("--encoding value too long")
	}

	quietFlag, _ := opts.Bool("--quiet")
	silent, _ := opts.Bool("--silent")
	quiet = quietFlag || silent

	noEcho, _ = opts.Bool("--no-echo")
	verbose, _ = opts.Bool("--verbose")
	vanilla, _ := opts.Bool("--vanilla")

	saveAction = Ask

	if save, _ := opts.Bool("--save"); save {
		saveAction = Save
	}

	if noSave, _ := opts.Bool("--no-save"); noSave || vanilla || noEcho {
		saveAction = NoSave
	}

	noRestore, _ := opts.Bool("--no-restore")
	noRestoreData, _ := opts.Bool("--no-restore-data")
	noRestoreHist, _ := opts.Bool("--no-restore-history")

	restoreData = !(noRestore || noRestoreData || vanilla)
	restoreHist = !(noRestore || noRestoreHist || vanilla)

	forced, _ := opts.Bool("--interactive")
	interactive = forced ||
		script == "" && command == "" && !noEcho &&
			isatty.IsTerminal(os.Stdin.Fd())

	minNSize = size(opts, "--min-nsize", 0)
	minVSize = size(opts, "--min-vsize", 0)

	maxPPSize = bounded(opts, "--max-ppsize", 50000, 10000, 500000)
	maxConnections = bounded(opts, "--max-connections", 128, 128, 4096)

	args, _ = opts["ARGUMENTS"].([]string)
}

// Legacy rewrites or drops option spellings docopt no longer knows.
func legacy(argv []string) []string {
	out := make([]string, 0, len(argv))

	for i, a := range argv {
		switch {
		case a == "--args":
			return append(out, argv[i:]...)
		case a == "--slave":
			out = append(out, "--no-echo")
		case strings.HasPrefix(a, "--"), !strings.HasPrefix(a, "-"), len(a) == 2:
			out = append(out, a)
		default:
			fmt.Fprintf(os.Stderr,
				"WARNING: option '%s' is deprecated and ignored\n", a)
		}
	}

	return out
}

func size(opts docopt.Opts, name string, dflt int64) int64 {
	s, _ := opts.String(name)
	if s == "" {
		return dflt
	}

	n, err := units.RAMInBytes(s)
	if err != nil {
		fatal("invalid " + name + " value '" + s + "'")
	}

	return n
}

func bounded(opts docopt.Opts, name string, dflt, low, high int) int {
	s, _ := opts.String(name)
	if s == "" {
		return dflt
	}

	var n int

	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil || n < low || n > high {
		fatal("invalid " + name + " value '" + s + "'")
	}

	return n
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "ERROR: "+msg)
	os.Exit(2)
}

func version() string {
	return "rho version 0.1.0"
}

// Args returns the arguments after --args.
func Args() []string {
	return args
}

// Command returns the expression given with -e, or "".
func Command() string {
	return command
}

// Interactive returns true for an interactive session.
func Interactive() bool {
	return interactive
}

// Input returns stdin, transcoded when --encoding was given.
func Input() io.Reader {
	if encoding == "" {
		return os.Stdin
	}

	enc, err := ianaindex.IANA.Encoding(encoding)
	if err != nil || enc == nil {
		fmt.Fprintf(os.Stderr,
			"WARNING: unknown encoding '%s' ignored\n", encoding)

		return os.Stdin
	}

	return transform.NewReader(os.Stdin, enc.NewDecoder())
}

// MaxConnections returns the connection limit.
func MaxConnections() int {
	return maxConnections
}

// MaxPPSize returns the protect-stack size.
func MaxPPSize() int {
	return maxPPSize
}

// MinNSize returns the requested initial node-heap size in bytes, or
// the value of R_NSIZE, or zero.
func MinNSize() int64 {
	if minNSize > 0 {
		return minNSize
	}

	return envSize("R_NSIZE")
}

// MinVSize returns the requested initial vector-heap size in bytes,
// or the value of R_VSIZE, or zero.
func MinVSize() int64 {
	if minVSize > 0 {
		return minVSize
	}

	return envSize("R_VSIZE")
}

// MaxVSize returns the vector-heap limit from R_MAX_VSIZE, or zero.
func MaxVSize() int64 {
	return envSize("R_MAX_VSIZE")
}

func envSize(name string) int64 {
	s := os.Getenv(name)
	if s == "" {
		return 0
	}

	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0
	}

	return n
}

// DisableBytecode returns true if R_DISABLE_BYTECODE is set.
func DisableBytecode() bool {
	return os.Getenv("R_DISABLE_BYTECODE") != ""
}

// PipeBind returns true if the => pipe-bind form is enabled.
func PipeBind() bool {
	return os.Getenv("_R_USE_PIPEBIND_") != ""
}

// NoEcho returns true when rho should run as quietly as possible.
func NoEcho() bool {
	return noEcho
}

// Quiet returns true when the banner is suppressed.
func Quiet() bool {
	return quiet || noEcho
}

// RestoreData returns true if the workspace should be restored.
func RestoreData() bool {
	return restoreData
}

// RestoreHistory returns true if the history file should be loaded.
func RestoreHistory() bool {
	return restoreHist
}

// SaveAction returns what to do with the workspace on exit.
func SaveAction() Action {
	return saveAction
}

// Script returns the path given with -f/--file, or "".
func Script() string {
	return script
}

// Verbose returns true when internal tracing is wanted.
func Verbose() bool {
	return verbose
}
