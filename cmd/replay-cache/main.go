package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/replay-cache/replay-cache/backend"
	"github.com/replay-cache/replay-cache/server"
)

var (
	// CLI flags
	configFlag         string
	portFlag           int
	captureDirFlag     string
	dynamicFlag        bool
	webTransportFlag   bool
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFlag, "config", "", "Config file to use (overrides other flags)")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&captureDirFlag, "dir", "", "Directory of captured responses to serve")
	flag.BoolVar(&dynamicFlag, "dynamic", false, "Serve generated responses for numeric paths")
	flag.BoolVar(&webTransportFlag, "webtransport", false, "Accept session-transport requests for cached paths")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	cfg := server.Config{
		Port:             portFlag,
		CaptureDir:       captureDirFlag,
		DynamicResponses: dynamicFlag,
		WebTransport:     webTransportFlag,
	}
	if configFlag != "" {
		fileCfg, err := server.LoadConfig(configFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot read config file")
		}
		cfg = fileCfg
	}

	metrics := server.NewMetrics()
	b := backend.New(backend.Config{
		Logger: &log.Logger,
		Events: metrics,
	})
	if cfg.DynamicResponses {
		b.GenerateDynamicResponses()
	}
	if cfg.WebTransport {
		b.EnableWebTransport()
	}
	if cfg.CaptureDir != "" {
		if err := b.InitializeBackend(cfg.CaptureDir); err != nil {
			log.Fatal().Err(err).Msg("Could not load capture directory")
		}
	}

	srv := server.NewServer(b, metrics, &log.Logger)
	log.Info().Msgf("Serving cached responses on port %v", cfg.Port)
	err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), srv.Handler())

	if err != nil {
		panic(err)
	}
}
