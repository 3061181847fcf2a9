package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"aquariumd/internal/advice"
	"aquariumd/internal/bridge"
	"aquariumd/internal/config"
	"aquariumd/internal/dashboard"
	"aquariumd/internal/frameset"
	"aquariumd/internal/history"
	"aquariumd/internal/httpapi"
	"aquariumd/internal/pipeline"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// Flags with environment variable defaults
	cfgPath := flag.String("config", os.Getenv("AQUARIUMD_CONFIG"), "Optional config file (.yaml/.json/.toml)")
	addr := flag.String("addr", envOr("AQUARIUMD_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	framesDir := flag.String("frames-dir", envOr("AQUARIUMD_FRAMES_DIR", "~/aquarium/frames"), "Directory holding happy/ sad/ angry/ frame*.bin assets")
	frameWidth := flag.Int("frame-width", 320, "Frame width in pixels")
	frameHeight := flag.Int("frame-height", 240, "Frame height in pixels")
	frameIntervalSec := flag.Int("frame-interval-sec", 10, "Seconds between animation frame advances")
	adviceEndpoint := flag.String("advice-endpoint", envOr("AQUARIUMD_ADVICE_ENDPOINT", ""), "OpenAI-compatible API base URL for care advice")
	adviceAPIKey := flag.String("advice-api-key", os.Getenv("AQUARIUMD_ADVICE_API_KEY"), "API key for the advice backend (empty disables advice)")
	adviceModel := flag.String("advice-model", envOr("AQUARIUMD_ADVICE_MODEL", ""), "Chat model name for care advice")
	bridgeServer := flag.String("bridge-server", envOr("AQUARIUMD_BRIDGE_SERVER", ""), "IoT cloud host to mirror state to (empty disables)")
	bridgeToken := flag.String("bridge-token", os.Getenv("AQUARIUMD_BRIDGE_TOKEN"), "IoT cloud device token")
	bridgeSyncSec := flag.Int("bridge-sync-sec", 30, "Seconds between cloud syncs")
	historyDB := flag.String("history-db", envOr("AQUARIUMD_HISTORY_DB", ""), "SQLite history database path (empty disables history)")
	logLevel := flag.String("log-level", envOr("AQUARIUMD_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()

	// Config file fills in flags the user did not set explicitly.
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *cfgPath).Msg("failed to load config")
		}
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		applyString := func(name string, dst *string, v string) {
			if !set[name] && v != "" {
				*dst = v
			}
		}
		applyInt := func(name string, dst *int, v int) {
			if !set[name] && v != 0 {
				*dst = v
			}
		}
		applyString("addr", addr, cfg.Addr)
		applyString("frames-dir", framesDir, cfg.FramesDir)
		applyInt("frame-width", frameWidth, cfg.FrameWidth)
		applyInt("frame-height", frameHeight, cfg.FrameHeight)
		applyInt("frame-interval-sec", frameIntervalSec, cfg.FrameIntervalSec)
		applyString("advice-endpoint", adviceEndpoint, cfg.AdviceEndpoint)
		applyString("advice-api-key", adviceAPIKey, cfg.AdviceAPIKey)
		applyString("advice-model", adviceModel, cfg.AdviceModel)
		applyString("bridge-server", bridgeServer, cfg.BridgeServer)
		applyString("bridge-token", bridgeToken, cfg.BridgeToken)
		applyInt("bridge-sync-sec", bridgeSyncSec, cfg.BridgeSyncSec)
		applyString("history-db", historyDB, cfg.HistoryDB)
	}

	set, err := frameset.ScanDir(*framesDir, *frameWidth, *frameHeight)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *framesDir).Msg("failed to load frame set")
	}
	loader := frameset.NewLoader(set)
	pipe := pipeline.New(loader, loader.FrameBytes(), log)

	ctrl := dashboard.New(pipe, dashboard.LogDisplay{Log: log}, dashboard.Config{
		FrameInterval: time.Duration(*frameIntervalSec) * time.Second,
	}, log)

	var hist *history.Store
	if *historyDB != "" {
		hist, err = history.Open(*historyDB, log)
		if err != nil {
			log.Fatal().Err(err).Str("path", *historyDB).Msg("failed to open history database")
		}
		defer hist.Close()
		ctrl.AddSink(hist)
	}

	var adv *advice.Client
	if *adviceAPIKey != "" {
		adv = advice.NewClient(advice.Config{
			Endpoint: *adviceEndpoint,
			APIKey:   *adviceAPIKey,
			Model:    *adviceModel,
		}, log)
	}

	var pub *bridge.Publisher
	if *bridgeServer != "" {
		pub = bridge.New(bridge.Config{
			Server:       *bridgeServer,
			Token:        *bridgeToken,
			SyncInterval: time.Duration(*bridgeSyncSec) * time.Second,
		}, log)
		ctrl.AddSink(pub)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	var advSvc httpapi.AdviceService
	if adv != nil {
		if pub != nil {
			// mirror each served tip to the cloud as well
			advSvc = adviceTee{client: adv, bridge: pub}
		} else {
			advSvc = adv
		}
	}
	var histSvc httpapi.HistoryService
	if hist != nil {
		histSvc = hist
	}
	mux := httpapi.NewMux(ctrl, advSvc, histSvc)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go pipe.Run(ctx)
	go ctrl.Run(ctx)
	if hist != nil {
		go hist.Run(ctx)
	}
	if pub != nil {
		go pub.Run(ctx)
	}

	go func() {
		log.Info().Str("addr", *addr).Str("frames_dir", *framesDir).Msg("aquariumd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
}
