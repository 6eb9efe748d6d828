// Command dmdserver runs the network frame server and pipeline as a
// standalone process: it attaches to the first serial-attached panel that
// answers the handshake, listens for TCP clients speaking the DMDStream protocol, and fans
// frames out to them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/pinballdmd/dmdutil-go/dmd"
	"github.com/pinballdmd/dmdutil-go/netserver"
	dmdserial "github.com/pinballdmd/dmdutil-go/serial"
)

// fileConfig is the on-disk YAML shape loaded by --config; CLI flags take
// precedence over it field-for-field when both are set.
type fileConfig struct {
	Addr             string `yaml:"addr"`
	Port             int    `yaml:"port"`
	SamSystem        bool   `yaml:"samSystem"`
	SerialDevice     string `yaml:"serialDevice"`
	NumLogicalRows   int    `yaml:"numLogicalRows"`
	AltColorPath     string `yaml:"altColorPath"`
	PupVideosPath    string `yaml:"pupVideosPath"`
	TimestampFormat  string `yaml:"timestampFormat"`
	DebugDumpDir     string `yaml:"debugDumpDir"`
	DebugDumpPattern string `yaml:"debugDumpPattern"`
	DebugDumpEveryN  int    `yaml:"debugDumpEveryN"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath       = pflag.String("config", "", "Path to a YAML configuration file.")
		altColorPath     = pflag.String("alt-color-path", "", "Fixed alt-color path, overriding per-frame values.")
		pupVideosPath    = pflag.String("pup-videos-path", "", "Fixed PUP-videos path, overriding per-frame values.")
		addr             = pflag.String("addr", "localhost", "Address to listen on.")
		port             = pflag.Int("port", 6789, "TCP port to listen on.")
		waitForDisplays  = pflag.Bool("wait-for-displays", false, "Keep running even if no display backend was found at startup.")
		timestampFormat  = pflag.String("timestamp-format", "", "strftime pattern appended to client connect/disconnect log lines.")
		debugDumpDir     = pflag.String("debug-dump-dir", "", "Directory to write periodic RGB24 frame dumps to. Empty disables dumping.")
		debugDumpPattern = pflag.String("debug-dump-pattern", "dmd-%Y%m%d-%H%M%S", "strftime pattern used to name each dumped frame file.")
		debugDumpEveryN  = pflag.Int("debug-dump-every-n", 1, "Dump every Nth emitted frame.")
		logging          = pflag.Bool("logging", false, "Enable informational logging.")
		verboseLogging   = pflag.Bool("verbose-logging", false, "Enable debug logging.")
		help             = pflag.Bool("help", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dmdserver - network frame server for pinball dot-matrix displays\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		return 0
	}

	logger := log.Default()
	switch {
	case *verboseLogging:
		logger.SetLevel(log.DebugLevel)
	case *logging:
		logger.SetLevel(log.InfoLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}

	fc := fileConfig{
		Addr: *addr, Port: *port, AltColorPath: *altColorPath, PupVideosPath: *pupVideosPath, NumLogicalRows: 16,
		TimestampFormat:  *timestampFormat,
		DebugDumpDir:     *debugDumpDir,
		DebugDumpPattern: *debugDumpPattern,
		DebugDumpEveryN:  *debugDumpEveryN,
	}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			logger.Error("reading config file", "path", *configPath, "err", err)
			return 1
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			logger.Error("parsing config file", "path", *configPath, "err", err)
			return 1
		}
		if pflag.CommandLine.Changed("addr") {
			fc.Addr = *addr
		}
		if pflag.CommandLine.Changed("port") {
			fc.Port = *port
		}
		if pflag.CommandLine.Changed("alt-color-path") {
			fc.AltColorPath = *altColorPath
		}
		if pflag.CommandLine.Changed("pup-videos-path") {
			fc.PupVideosPath = *pupVideosPath
		}
		if pflag.CommandLine.Changed("timestamp-format") {
			fc.TimestampFormat = *timestampFormat
		}
		if pflag.CommandLine.Changed("debug-dump-dir") {
			fc.DebugDumpDir = *debugDumpDir
		}
		if pflag.CommandLine.Changed("debug-dump-pattern") {
			fc.DebugDumpPattern = *debugDumpPattern
		}
		if pflag.CommandLine.Changed("debug-dump-every-n") {
			fc.DebugDumpEveryN = *debugDumpEveryN
		}
	}

	pipeline := dmd.NewPipeline(dmd.Config{
		SamSystem:        fc.SamSystem,
		Logger:           logger,
		DebugDumpDir:     fc.DebugDumpDir,
		DebugDumpPattern: fc.DebugDumpPattern,
		DebugDumpEveryN:  fc.DebugDumpEveryN,
	})
	pipeline.Start()
	defer pipeline.Stop()

	haveDisplay := attachSerialBackend(pipeline, fc, logger)
	if !haveDisplay && !*waitForDisplays {
		logger.Error("no displays present and --wait-for-displays not set")
		return 2
	}

	srv := netserver.NewServer(fmt.Sprintf("%s:%d", fc.Addr, fc.Port), pipeline, logger)
	srv.SetTimestampFormat(fc.TimestampFormat)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	advertiseCtx, cancelAdvertise := context.WithCancel(context.Background())
	defer cancelAdvertise()
	go advertise(advertiseCtx, fc.Addr, fc.Port, logger)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("listen failed", "err", err)
			return 1
		}
	case <-sig:
		logger.Info("shutting down")
	}

	srv.Close()
	srv.Wait()
	return 0
}

// attachSerialBackend probes for an attached panel and registers it with
// the pipeline. Absence of a panel is not fatal here; the caller decides
// whether that is acceptable via --wait-for-displays.
func attachSerialBackend(pipeline *dmd.Pipeline, fc fileConfig, logger *log.Logger) bool {
	backend, err := dmdserial.Open(fc.SerialDevice, fc.NumLogicalRows, dmd.ColorOrderRGB, logger, nil)
	if err != nil {
		logger.Warn("no serial-attached panel found", "err", err)
		return false
	}
	pipeline.AddBackend(backend)
	return true
}
