// Package main is the entry point for the tapelight server.
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

	"github.com/hypebeast/go-osc/osc"
	"github.com/joho/godotenv"

	"github.com/tapelight/tapelight-go/internal/api"
	"github.com/tapelight/tapelight-go/internal/config"
	"github.com/tapelight/tapelight-go/internal/control"
	"github.com/tapelight/tapelight-go/internal/database"
	"github.com/tapelight/tapelight-go/internal/database/models"
	"github.com/tapelight/tapelight-go/internal/database/repositories"
	"github.com/tapelight/tapelight-go/internal/effect"
	"github.com/tapelight/tapelight-go/internal/manager"
	"github.com/tapelight/tapelight-go/internal/output"
	"github.com/tapelight/tapelight-go/internal/pubsub"
	"github.com/tapelight/tapelight-go/internal/scene"
	"github.com/tapelight/tapelight-go/internal/segment"
	"github.com/tapelight/tapelight-go/internal/wsstream"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	printBanner(cfg)

	db, err := database.Connect(database.Config{
		URL:         cfg.DatabaseURL,
		MaxIdleConn: 5,
		MaxOpenConn: 10,
		Debug:       cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migrations complete")

	settingRepo := repositories.NewSettingRepository(db)

	ps := pubsub.New()

	sender := output.New(output.Config{
		Enabled: cfg.OutputEnabled,
		Addr:    cfg.OutputAddr,
		Port:    cfg.OutputPort,
		FPS:     cfg.FPS,
	})
	if err := sender.Start(); err != nil {
		log.Printf("Warning: output sender start failed: %v", err)
	}

	if saved, err := settingRepo.FindByKey(context.Background(), "output.broadcast_addr"); err == nil && saved != nil && saved.Value != "" {
		log.Printf("Loading saved output broadcast address: %s", saved.Value)
		if err := sender.ReloadAddr(saved.Value); err != nil {
			log.Printf("Warning: failed to load saved output address: %v", err)
		}
	}

	mgr := manager.New(ps, sender)
	mgr.AddScene(defaultScene(cfg))

	replyClient := osc.NewClient(cfg.OSCReplyIP, cfg.OSCReplyPort)
	dispatcher := control.New(mgr, replyClient, sender, cfg.LEDCount, cfg.FPS)
	dispatcher.SetPubSub(ps)
	dispatcher.SetSettings(settingRepo)

	oscServer := &osc.Server{
		Addr:       fmt.Sprintf("%s:%d", cfg.OSCListenIP, cfg.OSCListenPort),
		Dispatcher: dispatcher,
	}
	go func() {
		log.Printf("OSC control plane listening on %s", oscServer.Addr)
		if err := oscServer.ListenAndServe(); err != nil {
			log.Printf("OSC server error: %v", err)
		}
	}()

	renderStop := make(chan struct{})
	go renderLoop(mgr, cfg.FPS, renderStop)

	hub := wsstream.NewHub(ps)
	hub.Start()

	router := api.NewRouter(mgr, hub, cfg.CORSOrigin)
	httpServer := &http.Server{
		Addr:         ":" + cfg.StatusPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Status API listening on http://localhost:%s\n", cfg.StatusPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Status API error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	close(renderStop)
	sender.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Status API shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// defaultScene constructs scene 1 / effect 1 / segment 1 with the
// configured led count and fps, the minimal tree a fresh install needs
// before any control messages arrive.
func defaultScene(cfg *config.Config) *scene.Scene {
	sc := scene.New(1)
	e := effect.New(1, cfg.LEDCount, cfg.FPS, sc.Palettes)
	e.AddSegment(segment.NewDefault(1))
	sc.AddEffect(e)
	return sc
}

// renderLoop drives the manager at the fixed fps passed in (60 when fps
// is not positive) until stop is closed; the tick rate does not follow
// the active effect's own fps setting. It is the render/animation actor described in
// spec.md §5; the control actor runs inside the OSC server's own
// goroutine and mutates the same manager under its internal lock.
func renderLoop(mgr *manager.Manager, fps int, stop <-chan struct{}) {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			mgr.Update()
		}
	}
}

func printBanner(cfg *config.Config) {
	fmt.Println("============================================")
	fmt.Println("  tapelight")
	fmt.Printf("  Version: %s\n", Version)
	fmt.Printf("  Build:   %s\n", BuildTime)
	fmt.Printf("  Commit:  %s\n", GitCommit)
	fmt.Println("============================================")
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  LED count:   %d\n", cfg.LEDCount)
	fmt.Printf("  FPS:         %d\n", cfg.FPS)
	fmt.Printf("  OSC listen:  %s:%d\n", cfg.OSCListenIP, cfg.OSCListenPort)
	fmt.Printf("  Output:      %v %s:%d\n", cfg.OutputEnabled, cfg.OutputAddr, cfg.OutputPort)
	fmt.Println("============================================")
}
