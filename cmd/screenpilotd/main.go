// Copyright 2025 Joseph Cumines
//
// screenpilotd - localhost desktop automation gateway daemon

package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joeycumines/screenpilot/internal/automation"
	"github.com/joeycumines/screenpilot/internal/config"
	"github.com/joeycumines/screenpilot/internal/osauto"
	"github.com/joeycumines/screenpilot/internal/server"
	"github.com/joeycumines/screenpilot/internal/transport"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Permission bootstrap. The OS may prompt on the request calls; a
	// denied capability is reported but not fatal, since the matching
	// operations fail with 403s rather than crashing the daemon.
	var perms osauto.Permissions = osauto.GrantedPermissions{}
	if !perms.RequestCapture() {
		log.Println("Warning: screen capture permission not granted; captures will be denied")
	}
	if !perms.RequestInject() {
		log.Println("Warning: input injection permission not granted; input will be denied")
	}

	artifacts, err := automation.NewArtifactStore(cfg.ArtifactDir)
	if err != nil {
		log.Fatalf("Failed to create artifact store: %v", err)
	}

	engine := automation.New(automation.Deps{
		Screen:    osauto.CaptureScreen{},
		Input:     osauto.RobotInput{},
		Windows:   osauto.RobotWindows{},
		Clipboard: osauto.RobotClipboard{},
		Scaler:    osauto.RobotScaler{},
		Perms:     perms,
		Artifacts: artifacts,
	})

	audit, err := server.NewAuditLogger(cfg.AuditLog)
	if err != nil {
		log.Fatalf("Failed to open audit log: %v", err)
	}
	defer audit.Close()
	if audit.IsEnabled() {
		log.Printf("Audit logging to %s", cfg.AuditLog)
	}

	tokens := server.NewTokenStore(cfg.Token)
	metrics := transport.NewMetricsRegistry()
	gateway := server.NewGateway(server.Options{
		Engine:  engine,
		Tokens:  tokens,
		Metrics: metrics,
		Audit:   audit,
	})

	srv := transport.NewServer(&transport.ServerConfig{
		Host:         "127.0.0.1",
		Port:         cfg.Port,
		Workers:      cfg.Workers,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, gateway.Handler(), metrics)

	go consumeEvents(srv, cfg.Debug)
	go reloadTokenOnHUP(cfg, tokens)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	errChan := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if serveErr := srv.Serve(); serveErr != nil {
			errChan <- serveErr
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
		if closeErr := srv.Close(); closeErr != nil {
			log.Printf("Close error: %v", closeErr)
		}
	case err := <-errChan:
		log.Printf("Server error: %v", err)
	}

	// Wait for in-flight requests to drain
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Server shutdown complete")
	case <-sigChan:
		log.Println("Forced shutdown")
	}
}

// consumeEvents logs connection-level events. Dropped connections are
// routine with probing clients, so they only surface in debug mode; a
// rejected non-loopback peer is always worth a line.
func consumeEvents(srv *transport.Server, debug bool) {
	for e := range srv.Events() {
		switch e.Kind {
		case transport.EventConnRejected:
			log.Printf("Rejected non-loopback connection from %s", e.Addr)
		case transport.EventConnDropped:
			if debug {
				log.Printf("Dropped connection from %s: %v", e.Addr, e.Err)
			}
		case transport.EventStopped:
			log.Println("All connections drained")
		}
	}
}

// reloadTokenOnHUP swaps in a fresh token from the token file whenever the
// process receives SIGHUP. A failed read keeps the previous token so a
// botched rotation cannot lock the daemon open or shut.
func reloadTokenOnHUP(cfg *config.Config, tokens *server.TokenStore) {
	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, syscall.SIGHUP)
	for range hupChan {
		if cfg.TokenFile == "" {
			log.Println("SIGHUP received but no token file configured; ignoring")
			continue
		}
		token, err := config.ReadTokenFile(cfg.TokenFile)
		if err != nil {
			log.Printf("Token reload failed, keeping previous token: %v", err)
			continue
		}
		tokens.Set(token)
		log.Printf("Token reloaded from %s", cfg.TokenFile)
	}
}
