package nodeutil

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ground-x/blmessaging/log"
	"github.com/ground-x/blmessaging/node"
)

var logger = log.New("nodeutil")

// Fatalf formats a message to standard error (and standard output, if
// the two are distinct streams) and terminates the process with a
// non-zero exit code, per spec §6's "termination is always alertable"
// requirement. Ported directly from cmd/utils/cmd.go's Fatalf.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

// StartNode starts n, exiting the process via Fatalf if it fails, and
// installs a SIGINT/SIGTERM handler that stops it gracefully on the
// first signal, escalating to an immediate os.Exit if the operator
// signals repeatedly while shutdown is still in progress — the same
// shape as the teacher's own StartNode.
func StartNode(n *node.Node) {
	if err := n.Start(); err != nil {
		Fatalf("nodeutil: error starting node: %v", err)
	}
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		logger.Info("nodeutil: received interrupt, shutting down")
		go func() {
			if err := n.Stop(); err != nil {
				logger.Warn("nodeutil: error during shutdown", "err", err)
			}
			os.Exit(1)
		}()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				logger.Warn("nodeutil: already shutting down, interrupt more to force exit", "times", i-1)
			}
		}
		os.Exit(1)
	}()
}
