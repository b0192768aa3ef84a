package debug

import (
	"runtime"

	"gopkg.in/urfave/cli.v1"

	"github.com/ground-x/blmessaging/log"
)

var (
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: none, notify, error, warning, info, debug, trace",
		Value: "info",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "Enable the pprof/metrics/memsize debug HTTP server",
	}
	pprofPortFlag = cli.IntFlag{
		Name:  "pprofport",
		Usage: "Debug HTTP server listening port",
		Value: 6060,
	}
	pprofAddrFlag = cli.StringFlag{
		Name:  "pprofaddr",
		Usage: "Debug HTTP server listening interface",
		Value: "127.0.0.1",
	}
	memprofileFlag = cli.StringFlag{
		Name:  "memprofile",
		Usage: "Write memory profile to the given file on exit",
	}
	memprofilerateFlag = cli.IntFlag{
		Name:  "memprofilerate",
		Usage: "Turn on memory profiling with the given rate",
		Value: runtime.MemProfileRate,
	}
	blockprofilerateFlag = cli.IntFlag{
		Name:  "blockprofilerate",
		Usage: "Turn on block profiling with the given rate",
	}
	cpuprofileFlag = cli.StringFlag{
		Name:  "cpuprofile",
		Usage: "Write CPU profile to the given file",
	}
	traceFlag = cli.StringFlag{
		Name:  "trace",
		Usage: "Write execution trace to the given file",
	}
)

// Flags holds every command-line flag this package needs; both
// cmd/bl-broker and cmd/bl-gateway append it to their own flag table.
var Flags = []cli.Flag{
	verbosityFlag, pprofFlag, pprofAddrFlag, pprofPortFlag,
	memprofileFlag, memprofilerateFlag, blockprofilerateFlag,
	cpuprofileFlag, traceFlag,
}

var levelByName = map[string]log.Level{
	"none":    log.LevelNone,
	"notify":  log.LevelNotify,
	"error":   log.LevelError,
	"warning": log.LevelWarning,
	"info":    log.LevelInfo,
	"debug":   log.LevelDebug,
	"trace":   log.LevelTrace,
}

// Setup initializes logging verbosity and profiling from CLI flags.
// It should be called as early as possible in the program, matching
// the teacher's own debug.Setup contract.
func Setup(ctx *cli.Context) error {
	if lvl, ok := levelByName[ctx.GlobalString(verbosityFlag.Name)]; ok {
		log.SetLevel(lvl)
	}

	runtime.MemProfileRate = ctx.GlobalInt(memprofilerateFlag.Name)
	Handler.SetBlockProfileRate(ctx.GlobalInt(blockprofilerateFlag.Name))

	if traceFile := ctx.GlobalString(traceFlag.Name); traceFile != "" {
		if err := Handler.StartGoTrace(traceFile); err != nil {
			return err
		}
	}
	if cpuFile := ctx.GlobalString(cpuprofileFlag.Name); cpuFile != "" {
		if err := Handler.StartCPUProfile(cpuFile); err != nil {
			return err
		}
	}
	Handler.memFile = ctx.GlobalString(memprofileFlag.Name)

	if ctx.GlobalBool(pprofFlag.Name) {
		return Handler.StartPProf(ctx.GlobalString(pprofAddrFlag.Name), ctx.GlobalInt(pprofPortFlag.Name))
	}
	return nil
}

// Exit stops all running profiles, flushing their output to the
// respective file.
func Exit() {
	if Handler.memFile != "" {
		Handler.WriteMemProfile(Handler.memFile)
	}
	Handler.StopCPUProfile()
	Handler.StopGoTrace()
	Handler.StopPProf()
}
