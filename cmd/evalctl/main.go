// Command evalctl drives internal/fold and internal/library from the
// command line: a small hand-rolled CLI with single-letter command
// aliases, no framework.
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

// commandAliases maps single-letter shortcuts to their full command name.
var commandAliases = map[string]string{
	"l": "list",
	"i": "import",
	"x": "export",
	"e": "eval",
	"f": "fold",
	"s": "serve",
	"v": "version",
	"h": "help",
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the testscript-reachable entry point: it never calls os.Exit
// itself, returning a process exit code instead.
func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 1
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	var err error
	switch cmd {
	case "--help", "-h", "help":
		usage()
		return 0
	case "--version", "-v", "version":
		fmt.Println("evalctl", version)
		return 0
	case "list":
		err = cmdList(args[1:])
	case "import":
		err = cmdImport(args[1:])
	case "export":
		err = cmdExport(args[1:])
	case "eval", "fold":
		err = cmdEval(args[1:])
	case "serve":
		err = cmdServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "evalctl: unknown command %q\n", cmd)
		usage()
		return 1
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "evalctl: %v\n", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Println(`usage: evalctl <command> [flags]

commands:
  list    (l)  list units in the library store
  import  (i)  register the built-in demo units into the library store
  export  (x)  print a stored unit's decoded IR
  eval    (e)  fold a stored unit against integer arguments
  serve   (s)  start the verbose fold-trace websocket server
  version (v)  print the evalctl version
  help    (h)  show this message

flags of list, import, export, eval: -db <driver:dsn>, default "sqlite::memory:"`)
}
