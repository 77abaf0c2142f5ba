// Command storefront drives the storefront client from a terminal. Session
// tokens and the cart persist between runs in the configured state store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-client/internal/app"
	"github.com/angelmondragon/storefront-client/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
)

const usage = `usage: storefront <command> [args]

commands:
  login -role admin|customer -email E -password P
  logout [-role admin|customer]
  whoami
  create-account -name N -email E -password P
  products
  cart show | add <product-id> [qty] | set <product-id> <qty> | remove <product-id> | clear
  checkout -name N
  route <path>
  admin dashboard | approve <order-id> | feature <product-id>
  admin create-product -name N -price P -stock S -image URL
`

var errUsage = errors.New("invalid usage")

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, cfg, logg, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	a, err := app.Open(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storefront client", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logg.Error(context.Background(), "error closing state store", err)
		}
	}()

	cli := &cli{app: a, out: stdout}
	if err := cli.dispatch(ctx, args); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		fmt.Fprintln(stderr, "error:", describe(err))
		return 1
	}
	return 0
}

func describe(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err.Error()
	}
	msg := typed.Message()
	if typed.Code() == pkgerrors.CodeUnauthorized || typed.Code() == pkgerrors.CodeForbidden {
		msg += " (log in again)"
	}
	if details, ok := typed.Details().(map[string]string); ok {
		for _, field := range slices.Sorted(maps.Keys(details)) {
			msg += fmt.Sprintf("\n  %s: %s", field, details[field])
		}
	}
	return msg
}
