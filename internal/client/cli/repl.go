package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Add(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Meta(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Clear(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	Receipts(ctx context.Context) error
	Status(ctx context.Context) error
}

const helpText = `Available commands:
  add [-e] [-r N] <path>...   queue files, -e encrypts them
  list (l)                    show the queue
  meta <name> [k=v ...]       merge metadata into a queued file
  remove (rm) <name>...       drop or cancel queued files
  clear                       empty the queue
  upload [dir]                register ready files and upload them
  receipts                    show past uploads
  status                      wallet, ledger and queue summary
  exit | quit                 leave the program`

// runREPL reads commands from reader until EOF, "exit" or "quit" and
// dispatches them to a. Errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("atlas %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)
		case "add":
			err = a.Add(ctx, args)
		case "l", "list":
			err = a.List(ctx)
		case "meta":
			err = a.Meta(ctx, args)
		case "rm", "remove":
			err = a.Remove(ctx, args)
		case "clear":
			err = a.Clear(ctx)
		case "upload":
			err = a.Upload(ctx, args)
		case "receipts":
			err = a.Receipts(ctx)
		case "status":
			err = a.Status(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("error:", err)
		}
	}
}
