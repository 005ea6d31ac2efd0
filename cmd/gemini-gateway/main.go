package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"go.mau.fi/util/exzerolog"
	flag "maunium.net/go/mauflag"

	"github.com/beeper/gemini-gateway/pkg/gateway"
)

// Information to find out exactly which commit the gateway was built from.
// These are filled at build time with the -X linker flag.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const (
	name        = "gemini-gateway"
	description = "Browse Gemini capsules from an ordinary web browser."
	version     = "0.1.0"
)

var configPath = flag.MakeFull("c", "config", "The path to your config file.", "config.yaml").String()
var listenAddr = flag.MakeFull("l", "listen", "Override the listen address from the config.", "").String()
var writeExampleConfig = flag.MakeFull("e", "generate-example-config", "Save the example config to the config path and quit.", "false").Bool()
var showVersion = flag.MakeFull("v", "version", "View gateway version and quit.", "false").Bool()
var wantHelp, _ = flag.MakeHelpFlag()

func versionString() string {
	if Tag != "unknown" && Tag != "" {
		return fmt.Sprintf("%s %s (%s, built at %s)", name, Tag, Commit, BuildTime)
	}
	return fmt.Sprintf("%s %s+dev (%s, built at %s)", name, version, Commit, BuildTime)
}

func main() {
	flag.SetHelpTitles(
		fmt.Sprintf("%s - %s", name, description),
		fmt.Sprintf("%s [-hev] [-c <path>] [-l <address>]", name),
	)
	err := flag.Parse()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		flag.PrintHelp()
		os.Exit(1)
	} else if *wantHelp {
		flag.PrintHelp()
		os.Exit(0)
	} else if *showVersion {
		fmt.Println(versionString())
		os.Exit(0)
	} else if *writeExampleConfig {
		if err = writeExample(*configPath); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "Failed to write example config:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote example config to", *configPath)
		os.Exit(0)
	}

	cfg, err := gateway.LoadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(10)
	}
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}
	log, err := cfg.Logging.Compile()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(12)
	}
	exzerolog.SetupDefaults(log)
	log.Info().
		Str("version", versionString()).
		Str("config_path", *configPath).
		Msg("Initializing gateway")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	if err = gateway.NewServer(cfg, nil, *log).Run(ctx); err != nil {
		log.Err(err).Msg("Gateway stopped with error")
		stop()
		os.Exit(2)
	}
	log.Info().Msg("Gateway stopped")
}

// writeExample refuses to overwrite an existing file.
func writeExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(gateway.ExampleConfig), 0o600)
}
