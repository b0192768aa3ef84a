package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/ground-x/blmessaging/nodeutil"
)

// consoleCommand starts a broker and drops into a read-only REPL over
// its live dispatch backend, grounded on the teacher's own console
// subcommand shape (cmd/klay's consolecmd.go Action/Name/Usage
// convention), scaled down from an attached JavaScript VM to a handful
// of operator inspection verbs this broker actually needs: there is no
// admin RPC surface here to script against.
var consoleCommand = cli.Command{
	Action: runConsole,
	Name:   "console",
	Usage:  "start the broker and attach a read-only inspection console",
	Flags:  nodeutil.BrokerFlags,
}

func runConsole(ctx *cli.Context) error {
	n, svc, err := buildBrokerNode(ctx)
	if err != nil {
		return err
	}
	nodeutil.StartNode(n)

	out := colorable.NewColorableStdout()
	banner := color.New(color.FgCyan, color.Bold)
	banner.Fprintln(out, "blmessaging broker console — type 'help' for commands, 'exit' to quit")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	prompt := color.New(color.FgGreen).Sprint("bl-broker> ")
	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if !runConsoleCommand(out, svc, input) {
			break
		}
	}
	return nil
}

// runConsoleCommand executes one console line against svc's live state,
// returning false when the console should exit.
func runConsoleCommand(out interface{ Write([]byte) (int, error) }, svc *brokerService, input string) bool {
	switch input {
	case "exit", "quit":
		return false
	case "help":
		fmt.Fprintln(out, "commands: peers, queues, exit")
		return true
	case "peers":
		ids := svc.backend.AllActiveQueueIDs()
		fmt.Fprintf(out, "%d connected peer(s)\n", len(ids))
		for _, id := range ids {
			fmt.Fprintf(out, "  %s\n", id.String())
		}
		return true
	case "queues":
		ids := svc.backend.AllActiveQueueIDs()
		for _, id := range ids {
			q, ok := svc.backend.TryGetQueue(id)
			if !ok {
				continue
			}
			fmt.Fprintf(out, "  %s depth=%d\n", id.String(), q.Depth())
		}
		return true
	default:
		fmt.Fprintf(out, "unknown command %q, type 'help'\n", input)
		return true
	}
}
