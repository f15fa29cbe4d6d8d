// Released under an MIT license. See LICENSE.

// Package ui provides the interactive front end: a liner-backed
// prompt feeding the reader, with continuation lines while an
// expression is incomplete.
package ui

import (
	"fmt"
	"os"

	"github.com/peterh/liner"

	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/reader"
	"github.com/rho-lang/rho/internal/system/history"
	"github.com/rho-lang/rho/internal/system/options"
)

const name = "<console>"

// Run reads expressions interactively, handing each complete parse
// unit to run. It returns on end of input.
func Run(run func(exprs *vec.T)) {
	cli := liner.NewLiner()
	defer cli.Close()

	cli.SetCtrlCAborts(true)

	if options.RestoreHistory() {
		_ = history.Load(cli.ReadHistory)
	}

	r := newReader()

	for {
		prompt := "> "
		if r.Pending() {
			prompt = "+ "
		}

		line, err := cli.Prompt(prompt)

		switch err {
		case nil:
		case liner.ErrPromptAborted:
			// Ctrl-C at the prompt abandons the partial expression.
			r = newReader()

			continue
		default:
			fmt.Println("")

			if options.RestoreHistory() {
				_ = history.Save(cli.WriteHistory)
			}

			return
		}

		if line != "" {
			cli.AppendHistory(line)
		}

		exprs, err := r.Scan(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: "+err.Error())

			continue
		}

		if exprs != nil {
			run(vec.To(exprs))
		}
	}
}

func newReader() *reader.T {
	r := reader.New(name)

	if options.PipeBind() {
		r.EnablePipeBind()
	}

	return r
}
