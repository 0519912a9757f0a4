package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/property-portal/internal/config"
	"github.com/jrsteele09/property-portal/internal/telemetry"
	"github.com/jrsteele09/property-portal/mockapi"
	"github.com/jrsteele09/property-portal/token"
	fakeuserrepo "github.com/jrsteele09/property-portal/users/repofake"
)

const revocationPruneInterval = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatalf("Error running mock API: %s\n", err)
	}
	log.Printf("Mock API stopped\n")
}

func run() error {
	c, err := config.Load(os.Getenv(config.ConfigFileVar))
	if err != nil {
		return err
	}
	displayAppname("Mock API")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := telemetry.Setup(ctx, "property-portal-mockapi", c.GetOTelEndpoint())
	defer func() { _ = shutdownTracing(context.Background()) }()

	keyPair, err := token.LoadKeyPairFile("mockapi-1", c.GetSigningKeyFile())
	if err != nil {
		return err
	}
	issuer := token.NewIssuer(token.NewKeyPairSigner(keyPair), c.GetIssuerURL(), c.GetOIDCClientID(), c.GetTokenTTL())
	go pruneRevocations(ctx, issuer)

	userRepo := fakeuserrepo.NewFakeUserRepo()
	if err := mockapi.Seed(userRepo, c.GetSeedUsers(), c.GetEnv()); err != nil {
		return err
	}

	srv := &http.Server{Addr: c.GetMockAPIPort(), Handler: mockapi.New(c.GetEnv(), userRepo, issuer)}
	errs := make(chan error, 1)
	go func() {
		log.Printf("Mock API listening on %s (issuer %s)\n", srv.Addr, issuer.IssuerURL())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- fmt.Errorf("server.ListenAndServe %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errs:
		return err
	case <-stop:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func pruneRevocations(ctx context.Context, issuer *token.Issuer) {
	ticker := time.NewTicker(revocationPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := issuer.Prune(); n > 0 {
				log.Printf("Pruned %d revoked tokens\n", n)
			}
		}
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
