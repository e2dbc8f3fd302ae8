package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xorcism-go/internal/config"
	"github.com/xorcism-go/internal/obfuscate"
	"github.com/xorcism-go/internal/server"
)

func main() {
	var (
		keySpec = flag.String("key", "", "key spec: raw bytes, or hex:/base64:/file:/passphrase: prefixed (env XORCISM_KEY)")
		inPath  = flag.String("in", "", "input file (default stdin)")
		outPath = flag.String("out", "", "output file (default stdout)")
		offset  = flag.Int64("offset", 0, "resume the key stream at this byte offset")
		armor   = flag.String("a", "auto", "base64-armor the output: true, false, or auto (true when stdout is a terminal)")
		serve   = flag.Bool("serve", false, "run the HTTP service instead of a one-shot pipe")
	)
	flag.Parse()

	cfg := config.Load()
	setupLogging(cfg)

	if *serve {
		runServer(cfg)
		return
	}

	if err := runPipe(*keySpec, *inPath, *outPath, *offset, *armor); err != nil {
		log.Fatal().Err(err).Msg("xorcism failed")
	}
}

// runPipe copies source to sink through an encoding writer. The transform is
// an involution, so the same invocation decodes what it previously encoded.
func runPipe(keySpec, inPath, outPath string, offset int64, armor string) error {
	switch armor {
	case "true", "false", "auto":
	default:
		return fmt.Errorf("invalid -a value %q: want true, false, or auto", armor)
	}

	if keySpec == "" {
		keySpec = os.Getenv("XORCISM_KEY")
	}
	if keySpec == "" {
		return fmt.Errorf("key not provided: use -key or XORCISM_KEY")
	}

	transform, err := obfuscate.NewFromSpec(keySpec)
	if err != nil {
		return err
	}
	if err := transform.SetPosition(offset); err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if inPath != "" {
		f, err := os.Open(inPath)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var out io.WriteCloser = os.Stdout
	toTerminal := isatty.IsTerminal(os.Stdout.Fd())
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		out = f
		toTerminal = false
	}

	var sink io.Writer = out
	useArmor := armor == "true" || (armor == "auto" && toTerminal)
	var armorEnc io.WriteCloser
	if useArmor {
		armorEnc = base64.NewEncoder(base64.StdEncoding, out)
		sink = armorEnc
	}

	if _, err := io.Copy(obfuscate.NewWriter(sink, transform), bufio.NewReader(in)); err != nil {
		return err
	}
	if armorEnc != nil {
		if err := armorEnc.Close(); err != nil {
			return err
		}
	}
	if toTerminal {
		fmt.Println()
	}
	if outPath != "" {
		return out.Close()
	}
	return nil
}

func runServer(cfg *config.Config) {
	log.Info().Msg("Starting xorcism server")
	log.Info().
		Str("http_addr", cfg.GetHTTPAddr()).
		Bool("h2c", cfg.Scheme.EnableH2C).
		Bool("https", cfg.IsHTTPSEnabled()).
		Msg("Configuration loaded")

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Received shutdown signal")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch cfg.Log.Level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Logs go to stderr so pipe mode keeps stdout clean for data.
	var out io.Writer
	switch cfg.Log.Output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Log.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", cfg.Log.Output, err)
			out = os.Stderr
		} else {
			out = f
		}
	}

	if cfg.Log.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}
	log.Logger = log.Output(out)
}
