package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corvidlabs/crawlerd/internal/api"
)

func main() {
	cfg := api.LoadServerConfig()
	srv := api.NewServer(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("received signal %v, shutting down gracefully...", sig)

		shutdownDone := make(chan error, 1)
		go func() { shutdownDone <- srv.Shutdown() }()

		select {
		case err := <-shutdownDone:
			if err != nil {
				log.Printf("error during shutdown: %v", err)
				os.Exit(1)
			}
			log.Println("shutdown complete")
		case <-time.After(cfg.ShutdownTimeout + 5*time.Second):
			log.Println("shutdown timeout exceeded, forcing exit")
			os.Exit(1)
		}
	}
}
