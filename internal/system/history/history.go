// Released under an MIT license. See LICENSE.

// Package history loads and saves the interactive history file.
package history

import (
	"io"
	"os"
	"path/filepath"
)

// Path returns the history file location: R_HISTFILE when set,
// otherwise .rho_history in the user's home directory.
func Path() string {
	if p := os.Getenv("R_HISTFILE"); p != "" {
		return p
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".rho_history"
	}

	return filepath.Join(home, ".rho_history")
}

// Load reads saved history through read. A missing history file is
// not an error; there is simply nothing to restore.
func Load(read func(r io.Reader) (int, error)) error {
	f, err := os.Open(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	_, err = read(f)
	if err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

// Save writes history through write.
func Save(write func(w io.Writer) (int, error)) error {
	f, err := os.Create(Path())
	if err != nil {
		return err
	}

	_, err = write(f)
	if err != nil {
		f.Close()

		return err
	}

	return f.Close()
}
