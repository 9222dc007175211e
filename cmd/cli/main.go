package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"propsim/adapters/render"
	"propsim/internal"
	"propsim/internal/config"
	"propsim/internal/errors"
	"propsim/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Debug("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
	logger := internal.NewLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd(cfg, logger, textRenderer(cfg, logger))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(exitCode(err))
	}
}

// rendererFactory builds the presentation sink for a command's output stream.
type rendererFactory func(w io.Writer) (ports.RendererPort, error)

func textRenderer(cfg *config.Config, logger *internal.Logger) rendererFactory {
	return func(w io.Writer) (ports.RendererPort, error) {
		return render.NewTextRenderer(w, cfg.Render.HistogramBins, cfg.Render.BarWidth, logger)
	}
}

func exitCode(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeConfigInvalid:
		return 2
	case errors.CodeCancelled:
		return 130
	}
	return 1
}
