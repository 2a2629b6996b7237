package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"umath/internal/server"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

func main() {
	versionFlag := flag.Bool("version", false, "Print the version of the program")
	logfileFlag := flag.String("logfile", "", "Path to log file")
	verbosityFlag := flag.Int("verbosity", 2, "Verbosity of the protocol, render and preview logs")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("umath LSP server version %s\n", Version)
		return
	}

	runtime.GOMAXPROCS(4)

	closeLog, err := setupLogging(*logfileFlag, *verbosityFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "umath: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	log.Printf("Starting umath %s", Version)

	server.Version = Version
	lsp, err := server.NewServer()
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	if err := lsp.RunStdio(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// setupLogging sends the standard logger and commonlog to path. Without a
// path the standard logger is silenced; stdout carries the protocol, so
// commonlog then writes to stderr.
func setupLogging(path string, verbosity int) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		commonlog.Configure(verbosity, nil)
		return func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetFlags(log.Ldate | log.Ltime | log.Llongfile)
	commonlog.Configure(verbosity, &path)
	return func() { f.Close() }, nil
}
