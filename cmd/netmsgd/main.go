package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/netmsg/internal/admin"
	"github.com/danmuck/netmsg/internal/auth"
	"github.com/danmuck/netmsg/internal/capture"
	"github.com/danmuck/netmsg/internal/config"
	"github.com/danmuck/netmsg/internal/items"
	"github.com/danmuck/netmsg/internal/logging"
	"github.com/danmuck/netmsg/internal/observability"
	"github.com/danmuck/netmsg/internal/packets"
	"github.com/danmuck/netmsg/internal/protocol"
	"github.com/danmuck/netmsg/internal/transport"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "configs/netmsgd.toml", "server config path")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := observability.InitLogger("netmsgd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, logger); err != nil {
		fmt.Fprintf(os.Stderr, "netmsgd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger zerolog.Logger) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	reg, err := items.LoadFile(cfg.ItemsFile)
	if err != nil {
		return err
	}
	logger.Info().
		Str("config", configPath).
		Str("items_file", cfg.ItemsFile).
		Int("items", reg.Len()).
		Msg("netmsgd.run loaded")

	tcfg := transport.Config{
		Network:      cfg.Network,
		ListenAddr:   cfg.ListenAddr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Limits:       cfg.Limits(),
		Mode:         protocol.ModePermissive,
		Items:        reg,
	}
	if cfg.Strict {
		tcfg.Mode = protocol.ModeStrict
	}
	if cfg.CaptureFile != "" {
		w, err := capture.Create(cfg.CaptureFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn().Err(err).Msg("netmsgd.run capture close failed")
			}
			logger.Info().Int("records", w.Count()).Str("file", cfg.CaptureFile).Msg("netmsgd.run capture closed")
		}()
		tcfg.Recorder = w
	}

	handler := &packets.Handler{Items: reg, Stats: progressStats}
	srv := transport.NewServer(tcfg, handler)
	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})
	if cfg.AdminAddr != "" {
		var guard auth.Validator
		if cfg.AdminToken != "" {
			guard = auth.StaticToken{Token: cfg.AdminToken}
		}
		adm := admin.New("netmsgd", cfg.CorsOrigins, srv, reg, guard)
		g.Go(func() error {
			return adm.Run(gctx, cfg.AdminAddr)
		})
	}
	err = g.Wait()
	logger.Info().Err(err).Msg("netmsgd.run stopped")
	return err
}

// progressStats derives a level and progress from the packets a client sent.
func progressStats(conn *transport.Conn) packets.Stats {
	n := conn.Packets()
	return packets.Stats{
		Level:   uint16(1 + n/100),
		Percent: float64(n % 100),
	}
}
