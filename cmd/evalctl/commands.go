package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/kr/pretty"

	"nvcfold/internal/diag"
	"nvcfold/internal/fold"
	"nvcfold/internal/heap"
	"nvcfold/internal/library"
	"nvcfold/internal/lowering"
	"nvcfold/internal/tracesrv"
)

// openStore parses "-db driver:dsn" (default sqlite::memory:) and opens the
// persisted unit store.
func openStore(fs *flag.FlagSet) (*library.Store, error) {
	db := fs.Lookup("db").Value.String()
	parts := strings.SplitN(db, ":", 2)
	driver, dsn := "sqlite", ":memory:"
	if len(parts) == 2 {
		driver, dsn = parts[0], parts[1]
	}
	return library.Open(driver, dsn)
}

func dbFlag(fs *flag.FlagSet) {
	fs.String("db", "sqlite::memory:", "library store as driver:dsn")
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dbFlag(fs)
	fs.Parse(args)

	store, err := openStore(fs)
	if err != nil {
		return err
	}
	defer store.Close()

	names, err := store.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbFlag(fs)
	fs.Parse(args)

	store, err := openStore(fs)
	if err != nil {
		return err
	}
	defer store.Close()

	for name, u := range demoUnits() {
		if err := store.Put(name, u); err != nil {
			return fmt.Errorf("import %q: %w", name, err)
		}
		fmt.Println("imported", name)
	}
	return nil
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbFlag(fs)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: evalctl export [-db ...] <unit-name>")
	}

	store, err := openStore(fs)
	if err != nil {
		return err
	}
	defer store.Close()

	u, ok, err := store.Get(fs.Arg(0))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no unit named %q in the store", fs.Arg(0))
	}
	fmt.Printf("%# v\n", pretty.Formatter(u))
	return nil
}

func cmdEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	dbFlag(fs)
	verbose := fs.Bool("verbose", false, "emit verbose fold diagnostics")
	bounds := fs.Bool("bounds", true, "report bounds violations")
	warn := fs.Bool("warn", true, "warn when folding is prevented")
	fcall := fs.Bool("fcall", true, "permit descending into function calls")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: evalctl eval [flags] <unit-name> [int-arg ...]")
	}

	name := fs.Arg(0)
	var intArgs []int64
	for _, a := range fs.Args()[1:] {
		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("argument %q is not an integer: %w", a, err)
		}
		intArgs = append(intArgs, n)
	}

	store, err := openStore(fs)
	if err != nil {
		return err
	}
	defer store.Close()

	stub := lowering.NewStub()
	for n, u := range demoUnits() {
		stub.Register(n, u)
	}
	cache := library.NewCache(store, stub)

	counter := &diag.Counter{}
	rep := diag.NewReporter(os.Stderr, counter)

	opts := fold.Options{Fcall: *fcall, Bounds: *bounds, Warn: *warn, Verbose: *verbose}
	sess := fold.NewSession()
	h := heap.New()

	caller := callerUnit(name, intArgs)
	cs := fold.Callsite{Unit: caller, ArgIsCallExpr: make([]bool, len(intArgs))}

	v, ok := fold.Fold(cs, h, rep, cache, opts, sess)
	if !ok {
		return fmt.Errorf("fold of %q did not produce a value (errors so far: %d)", name, fold.EvalErrors(counter))
	}
	fmt.Println(v.String())
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8089", "listen address")
	fs.Parse(args)

	srv := tracesrv.New()
	http.Handle("/trace", srv)
	fmt.Println("evalctl: trace server listening on", *addr, "(ws path /trace)")
	return http.ListenAndServe(*addr, nil)
}
