// announce-mcp serves the email drafting and sending tools over the Model
// Context Protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/internal/app"
	"github.com/capitalize-ai/announcement-agent/internal/config"
	"github.com/capitalize-ai/announcement-agent/internal/mcpserver"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

func main() {
	httpAddr := flag.String("http-addr", "", "serve streamable HTTP on this address instead of stdio")
	envFile := flag.String("env-file", "", "path to env file")
	flag.Parse()

	if *envFile != "" {
		os.Setenv("ENV_FILE", *envFile)
	}
	cfg := config.Load()

	// stdout carries the stdio transport.
	log, err := logger.New(cfg.LogLevel, "stderr")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}
	defer components.Close()

	server := mcpserver.NewServer(components.Tools)

	if *httpAddr == "" {
		log.Info("serving MCP over stdio")
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("stdio transport stopped", zap.Error(err))
		}
		return
	}

	srv := &http.Server{
		Addr:    *httpAddr,
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", zap.Error(err))
		}
	}()

	log.Info("serving MCP over HTTP", zap.String("addr", *httpAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server stopped", zap.Error(err))
	}
}
