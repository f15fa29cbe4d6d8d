// Released under an MIT license. See LICENSE.

package base

import (
	"time"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/prim"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/system/profile"
)

// BRprof starts or stops the sampling profiler. A NULL or empty
// filename stops it.
func bRprof(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	matched := match(args, "filename", "interval",
		"memory.profiling", "line.profiling", "filter.callframes")

	ip.Visible(false)

	path := "Rprof.out"

	if f := matched[0]; f != nil {
		if f == pair.Null {
			path = ""
		} else {
			v := mustVec(call, f)
			if v.Kind() != vec.Character || v.Len() != 1 {
				panic(cond.Error("invalid 'filename' argument", call))
			}

			path = v.Strings()[0]
		}
	}

	if path == "" {
		profile.Stop()

		return pair.Null
	}

	cfg := profile.Config{Path: path, Interval: 20 * time.Millisecond}

	if v := matched[1]; v != nil {
		seconds := mustVec(call, v)
		if seconds.Len() != 1 {
			panic(cond.Error("invalid 'interval' argument", call))
		}

		f := coerce(seconds, vec.Double).Reals()[0]
		cfg.Interval = time.Duration(f * float64(time.Second))
	}

	if v := matched[2]; v != nil {
		cfg.Memory = mustVec(call, v).Bool()
	}

	if v := matched[3]; v != nil {
		cfg.Lines = mustVec(call, v).Bool()
	}

	if v := matched[4]; v != nil {
		cfg.Filter = mustVec(call, v).Bool()
	}

	if err := profile.Start(cfg); err != nil {
		panic(cond.FromError(err, call))
	}

	return pair.Null
}
