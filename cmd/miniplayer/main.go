package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"miniplayer/internal/audio"
	"miniplayer/internal/config"
	"miniplayer/internal/session"
	"miniplayer/internal/ui"
	"miniplayer/pkg/events"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env, used to point MINIPLAYER_CONFIG somewhere else
	godotenv.Load()

	// Load settings; a broken file still yields usable defaults
	settingsPath := config.Path()
	settings, err := config.Load(settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: load settings: %v\n", err)
	}
	if err := os.MkdirAll(filepath.Dir(settingsPath), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	// Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Initialize audio engine
	audioEngine := audio.NewAudioEngine()
	audioEngine.Start(ctx)

	// Fan engine events out to the UI
	bus := events.NewEventBus()
	defer bus.Close()
	go func() {
		for {
			select {
			case event, ok := <-audioEngine.Events():
				if !ok {
					return
				}
				bus.Publish(event)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Restore the previous session: folder, track, volume, speed, modes
	sess := session.New(audioEngine, settings, settingsPath)
	if err := sess.Restore(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: restore session: %v\n", err)
	}

	// Save settings on exit
	defer func() {
		if err := sess.SaveSettings(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: save settings: %v\n", err)
		}
	}()

	// Run UI
	if err := ui.Run(sess, bus); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	return nil
}
