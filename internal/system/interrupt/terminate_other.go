// Released under an MIT license. See LICENSE.

// +build !aix,!darwin,!dragonfly,!freebsd,!linux,!netbsd,!openbsd,!solaris

package interrupt

// OnTerminate is a no-op where SIGUSR1 and SIGUSR2 do not exist.
func OnTerminate(func(save bool)) {}
