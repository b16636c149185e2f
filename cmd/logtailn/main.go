// logtailn prints the part of one or more log files that was appended since
// its previous run and remembers where it stopped, following the file across
// rotation by inode.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SteelMorgan/logtailn/internal/clickhouse"
	"github.com/SteelMorgan/logtailn/internal/config"
	"github.com/SteelMorgan/logtailn/internal/observability"
	"github.com/SteelMorgan/logtailn/internal/offset"
	"github.com/SteelMorgan/logtailn/internal/service"
	"github.com/SteelMorgan/logtailn/internal/writer"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const version = "1.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code.
// Log payload goes to stdout only; everything else goes to stderr.
func run(args []string, stdout, stderr io.Writer) int {
	var (
		offsetFile  string
		stateDB     string
		configPath  string
		logLevel    string
		lock        bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("logtailn", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&offsetFile, "offset-file", "o", "", "offset file (default: <LAST_LOG_FILE>.offset)")
	flagSet.StringVar(&stateDB, "state-db", "", "keep the offset in this BoltDB file instead of a text offset file")
	flagSet.BoolVar(&lock, "lock", false, "refuse to run while another invocation holds the offset lock")
	flagSet.StringVar(&configPath, "config", "", "YAML configuration file")
	flagSet.StringVar(&logLevel, "log-level", "", "diagnostic level: debug, info, warn, error")
	flagSet.BoolVarP(&showVersion, "version", "V", false, "print version and exit")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if showVersion {
		fmt.Fprintf(stderr, "logtailn version %s\n", version)
		return exitOK
	}

	files := flagSet.Args()
	if len(files) == 0 {
		printUsage(stderr, flagSet)
		return exitUsage
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitUsage
	}
	if flagSet.Changed("offset-file") {
		cfg.OffsetFile = offsetFile
	}
	if flagSet.Changed("state-db") {
		cfg.StateDB = stateDB
	}
	if flagSet.Changed("lock") {
		cfg.Lock = lock
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return exitUsage
	}

	observability.InitLogger(stderr, cfg.LogLevel, cfg.LogFile)

	ctx := context.Background()
	runID := uuid.NewString()

	shutdown, err := observability.InitTracer(observability.TracerConfig{
		ServiceName:    "logtailn",
		ServiceVersion: version,
		InstanceID:     runID,
		Endpoint:       cfg.TracingEndpoint,
		Protocol:       cfg.TracingProtocol,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to flush traces")
			}
		}()
	}

	statePath := cfg.OffsetFile
	if statePath == "" {
		statePath = offset.DefaultPath(files[len(files)-1])
	}

	store, err := openStore(cfg, statePath)
	if err != nil {
		log.Error().Err(err).Str("state_path", statePath).Msg("Failed to open offset store")
		return exitCode(err)
	}
	defer store.Close()

	opts := service.Options{
		Files:  files,
		Store:  store,
		Output: stdout,
		RunID:  runID,
	}
	if cfg.Lock {
		opts.LockPath = statePath + ".lock"
	}
	if cfg.ClickHouseMirror {
		progress, err := openProgressWriter(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("ClickHouse mirror unavailable, continuing without it")
		} else {
			defer progress.Close()
			opts.Progress = progress
		}
	}

	svc, err := service.NewTailService(opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create tail service")
		return exitSoftware
	}

	if _, err := svc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("logtailn failed")
		return exitCode(err)
	}

	return exitOK
}

// openStore picks the state backend: a BoltDB file when configured,
// otherwise the text offset file.
func openStore(cfg *config.Config, statePath string) (offset.Store, error) {
	if cfg.StateDB != "" {
		return offset.NewBoltDBStore(cfg.StateDB, statePath)
	}
	return offset.NewSidecarStore(statePath), nil
}

func openProgressWriter(ctx context.Context, cfg *config.Config) (writer.ProgressWriter, error) {
	client, err := clickhouse.NewClient(ctx, cfg.ClickHouseHost, cfg.ClickHousePort, cfg.ClickHouseDB)
	if err != nil {
		return nil, err
	}

	w, err := writer.NewClickHouseWriter(client, cfg.ClickHouseTable, client.Close)
	if err != nil {
		client.Close()
		return nil, err
	}

	if err := w.EnsureSchema(ctx); err != nil {
		w.Close()
		return nil, err
	}

	return w, nil
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "\nlogtailn: version %s\n\n", version)
	fmt.Fprintf(w, "Usage: logtailn [-o <offset_file>] <LOG_FILE> ... <LAST_LOG_FILE>\n\n")
	fmt.Fprintf(w, "logtailn reads the given files and writes what is new to stdout.\n\n")
	fmt.Fprintf(w, "Afterwards it writes <LAST_LOG_FILE>.offset next to the last file,\n")
	fmt.Fprintf(w, "holding the inode and byte offset reached. The next run starts\n")
	fmt.Fprintf(w, "at that offset. Rotated log files are detected by inode and read\n")
	fmt.Fprintf(w, "from the start. List rotated files oldest first, with the same\n")
	fmt.Fprintf(w, "order on every run.\n\n")
	fmt.Fprintf(w, "Options:\n")
	flagSet.PrintDefaults()
	fmt.Fprintln(w)
}
