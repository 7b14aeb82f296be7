// cargoctl drives the packing-list pipeline against a running Backend API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/config"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/shared/cargoapi"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const usage = `usage: cargoctl [-api URL] [-token TOKEN] <command> [flags]

commands:
  import  -file lista.xlsx [-out resultado.json]   upload and normalize a packing list
  code    [-ledger DIR]                            issue a shipment code (always succeeds)
  save    -import resultado.json -nombre ... -correo ... [-codigo ...]
                                                   persist a normalized packing list
  qrs     -id N                                    list QR records with item numbers
  qr      -box N [-width W] [-out qr.png]          download one QR image
  pdf     -id N [-compact] [-out DIR]              download the QR document

The bearer token is read from -token or CARGO_TOKEN.
`

// app 命令执行环境
type app struct {
	cfg    *config.Config
	client *cargoapi.Client
	cred   cargoapi.Credential
	logger *zap.Logger
	stdout io.Writer
}

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fs := flag.NewFlagSet("cargoctl", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	apiURL := fs.String("api", cfg.API.BaseURL, "Backend API base URL")
	token := fs.String("token", os.Getenv("CARGO_TOKEN"), "bearer token")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(os.Args[1:])

	logger, err := newLogger(cfg.Log, *verbose)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	a := &app{
		cfg:    cfg,
		client: cargoapi.NewClient(*apiURL, cfg.API.Timeout),
		cred:   cargoapi.Credential(*token),
		logger: logger,
		stdout: os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, fs.Args()); err != nil {
		logger.Error("command failed", zap.Error(err))
		if fields := cargoapi.FieldErrors(err); len(fields) > 0 {
			for _, f := range fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
			}
		}
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose || cfg.Level == "debug" {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapCfg.OutputPaths = []string{"stderr"}
	return zapCfg.Build()
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "import":
		return a.importCmd(ctx, rest)
	case "code":
		return a.codeCmd(ctx, rest)
	case "save":
		return a.saveCmd(ctx, rest)
	case "qrs":
		return a.qrsCmd(ctx, rest)
	case "qr":
		return a.qrCmd(ctx, rest)
	case "pdf":
		return a.pdfCmd(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
