// Released under an MIT license. See LICENSE.

/*
Rho is the execution core of a lazy, array-oriented language. It
parses expressions into pairlist trees, evaluates them with a
tree-walking machine, and compiles the hot ones to bytecode run on a
stack interpreter. This driver wires the pieces together: options,
the interactive prompt, batch input, and the workspace hooks.
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/deparse"
	"github.com/rho-lang/rho/internal/engine/base"
	"github.com/rho-lang/rho/internal/engine/eval"
	"github.com/rho-lang/rho/internal/engine/jit"
	"github.com/rho-lang/rho/internal/reader"
	"github.com/rho-lang/rho/internal/system/interrupt"
	"github.com/rho-lang/rho/internal/system/options"
	"github.com/rho-lang/rho/internal/system/profile"
	"github.com/rho-lang/rho/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	options.Parse()

	m := eval.New()

	if !options.DisableBytecode() {
		p := jit.New(jit.FromEnv())
		p.SetGlobal(m.Global())
		m.SetPolicy(p)
	}

	restore()

	// SIGUSR1 saves and quits, SIGUSR2 quits immediately.
	interrupt.OnTerminate(func(s bool) {
		profile.Stop()

		if s {
			save()
		}

		os.Exit(0)
	})

	defer profile.Stop()

	if options.Interactive() {
		interrupt.Notify()
		defer interrupt.Ignore()

		if !options.Quiet() {
			banner()
		}

		ui.Run(func(exprs *vec.T) {
			evaluate(m, exprs, false, true)
		})

		save()

		return 0
	}

	name, source, err := batchSource()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: "+err.Error())

		return 2
	}

	exprs, err := reader.Parse(name, source, options.PipeBind())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())

		return 1
	}

	echo := !options.NoEcho() && options.Command() == ""

	if !evaluate(m, exprs, echo, false) {
		return 1
	}

	save()

	return 0
}

// Evaluate runs each top-level expression, printing visible results
// and collected warnings. In batch mode the first error stops the
// run; interactively it returns to the prompt.
func evaluate(m *eval.T, exprs *vec.T, echo, interactive bool) bool {
	for i := 0; i < exprs.Len(); i++ {
		expr := exprs.At(i)

		if echo {
			fmt.Println("> " + deparse.Text(expr))
		}

		result, visible, err := m.EvalTop(expr)
		if err != nil {
			report(err)
			warnings(m)

			if !interactive {
				return false
			}

			continue
		}

		if visible {
			fmt.Println(base.Render(result))
		}

		warnings(m)
	}

	return true
}

// BatchSource decides where non-interactive input comes from: -e,
// then -f/--file, then stdin.
func batchSource() (name, source string, err error) {
	if command := options.Command(); command != "" {
		return "<command>", command, nil
	}

	if path := options.Script(); path != "" {
		text, err := os.ReadFile(path)
		if err != nil {
			return "", "", err
		}

		return path, string(text), nil
	}

	text, err := io.ReadAll(options.Input())
	if err != nil {
		return "", "", err
	}

	return "<stdin>", string(text), nil
}

// Report is the top-level reporter: the message, with the call when
// one was recorded.
func report(c *cond.T) {
	if c.Is("interrupt") {
		fmt.Fprintln(os.Stderr, "")

		return
	}

	if call := c.Call(); call != nil {
		fmt.Fprintf(os.Stderr, "Error in %s : %s\n",
			deparse.Text(call), c.Message())

		return
	}

	fmt.Fprintln(os.Stderr, "Error: "+c.Message())
}

func warnings(m *eval.T) {
	pending := m.Warnings()

	switch {
	case len(pending) == 0:
		return
	case len(pending) == 1:
		fmt.Fprintln(os.Stderr, "Warning message:")
	default:
		fmt.Fprintln(os.Stderr, "Warning messages:")
	}

	for _, w := range pending {
		if call := w.Call(); call != nil {
			fmt.Fprintf(os.Stderr, "In %s : %s\n",
				deparse.Text(call), w.Message())

			continue
		}

		fmt.Fprintln(os.Stderr, w.Message())
	}
}

func banner() {
	fmt.Println("rho version 0.1.0")
	fmt.Println("Press Ctrl-D to quit.")
	fmt.Println("")
}

// Restore honors the --restore flag family. The image format itself
// is not implemented; the action is recorded and reported.
func restore() {
	if !options.RestoreData() {
		return
	}

	if _, err := os.Stat(".RData"); err != nil {
		return
	}

	if options.Verbose() {
		fmt.Fprintln(os.Stderr,
			"note: .RData present but image restore is not implemented")
	}
}

// Save honors the --save flag family the same way.
func save() {
	if options.SaveAction() != options.Save {
		return
	}

	if options.Verbose() {
		fmt.Fprintln(os.Stderr,
			"note: workspace save requested but image save is not implemented")
	}
}
