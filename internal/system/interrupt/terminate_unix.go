// Released under an MIT license. See LICENSE.

// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package interrupt

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// OnTerminate arranges for f to run once when the process receives the
// save-and-quit signal (SIGUSR1, save true) or the immediate-quit
// signal (SIGUSR2, save false). f runs on a signal goroutine and is
// expected not to return.
func OnTerminate(f func(save bool)) {
	c := make(chan os.Signal, 1)

	signal.Notify(c, unix.SIGUSR1, unix.SIGUSR2)

	go func() {
		s := <-c
		f(s == unix.SIGUSR1)
	}()
}
