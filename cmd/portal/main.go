package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/property-portal/api"
	"github.com/jrsteele09/property-portal/gate"
	"github.com/jrsteele09/property-portal/gate/oidcverify"
	"github.com/jrsteele09/property-portal/internal/config"
	"github.com/jrsteele09/property-portal/internal/telemetry"
	"github.com/jrsteele09/property-portal/server"
	"github.com/jrsteele09/property-portal/storage"
	"github.com/jrsteele09/property-portal/storage/redisrepo"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	for {
		if err := run(); err != nil {
			log.Printf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(os.Getenv(config.ConfigFileVar))
	if err != nil {
		return err
	}
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := telemetry.Setup(ctx, c.GetAppName(), c.GetOTelEndpoint())
	defer func() { _ = shutdownTracing(context.Background()) }()

	registry, err := newGateRegistry(ctx, c)
	if err != nil {
		return err
	}
	defer registry.Close()
	go registry.Run(ctx, c.GetSweepInterval())

	handler, err := server.New(c, registry)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(srv) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func newGateRegistry(ctx context.Context, c config.Config) (*server.GateRegistry, error) {
	var provider storage.Provider = storage.NewInMemoryProvider()
	if redisURL := c.GetRedisURL(); redisURL != "" {
		client, err := redisrepo.Connect(ctx, redisURL)
		if err != nil {
			return nil, err
		}
		provider = redisrepo.New(client, c.GetSessionIdleTTL())
		zlog.Info().Msg("Sessions stored in redis")
	}

	client, err := api.NewClient(c.GetBackendURL(),
		api.WithTimeout(c.GetBackendTimeout()),
		api.WithLoginPath(c.GetLoginPath()),
		api.WithLogoutPath(c.GetLogoutPath()),
	)
	if err != nil {
		return nil, err
	}

	options := []gate.GateOption{
		gate.WithSendRole(c.GetSendLoginRole()),
		gate.WithLogoutTimeout(c.GetLogoutTimeout()),
	}
	if issuerURL := c.GetOIDCIssuerURL(); issuerURL != "" {
		verifier, err := oidcverify.New(ctx, issuerURL, c.GetOIDCClientID())
		if err != nil {
			return nil, err
		}
		options = append(options, gate.WithTokenVerifier(verifier))
		zlog.Info().Str("issuer", issuerURL).Msg("Verifying backend tokens")
	}

	return server.NewGateRegistry(server.NewGateFactory(provider, client, options...), c.GetGateIdleTimeout()), nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
