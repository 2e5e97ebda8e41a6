package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"horse.fit/translator/internal/cli"
	"horse.fit/translator/internal/httpapi"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "127.0.0.1", "Host interface to bind")
	port := fs.Int("port", 8090, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 90*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	startupTimeout := fs.Duration("startup-timeout", 30*time.Second, "Timeout for loading models and connecting to the database")
	watch := fs.Bool("watch", true, "Reload the settings file when it changes on disk")
	noLocal := fs.Bool("no-local", false, "Do not start the local translation engine")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(stderr, "--port must be between 1 and 65535")
		return 2
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), *startupTimeout)
	defer startupCancel()

	rt, err := openRuntime(startupCtx, envLoader, runtimeOptions{skipLocal: *noLocal})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer rt.Close()
	logger := rt.logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := httpapi.NewServer(rt.manager, rt.messages, logger, httpapi.Options{
		Host:               *host,
		Port:               *port,
		ReadTimeout:        *readTimeout,
		WriteTimeout:       *writeTimeout,
		ShutdownTimeout:    *shutdownTimeout,
		TokenHash:          rt.cfg.APITokenHash,
		CORSAllowedOrigins: rt.cfg.CORSAllowedOriginsList(),
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Start(groupCtx)
	})
	if *watch {
		group.Go(func() error {
			if err := rt.store.Watch(groupCtx); err != nil {
				logger.Warn().Err(err).Str("path", rt.store.Path()).Msg("settings watcher stopped")
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
