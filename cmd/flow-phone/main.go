// Command flow-phone runs the phone side of a redis-backed link as its own process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flow-cli/internal/bootstrap"
	"flow-cli/internal/config"
	"flow-cli/internal/logger"
	"flow-cli/internal/peer"

	"github.com/joho/godotenv"
)

var log = logger.Named("phone")

type stringSlice []string

func (s *stringSlice) String() string { return fmt.Sprint(*s) }

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	_ = godotenv.Load()
	logger.Configure()

	var (
		cfgPath   string
		responder string
		overrides stringSlice
	)
	fs := flag.NewFlagSet("flow-phone", flag.ContinueOnError)
	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.flow/config.toml)")
	fs.StringVar(&responder, "responder", "", "echo, openai or anthropic")
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	kv := []string{"transport.kind=" + config.TransportRedis}
	if responder != "" {
		kv = append(kv, "peer.responder="+responder)
	}
	cfg = config.ApplyKVOverrides(cfg, append(kv, overrides...))
	config.ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)

	r, err := bootstrap.NewResponder(cfg.Peer)
	if err != nil {
		log.Fatalf("build responder: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	link, err := bootstrap.OpenPhoneLink(ctx, cfg)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer link.Close()

	companion := peer.NewCompanion(link, r,
		peer.WithResponderLog(logger.NewResponderLog(nil)),
		peer.WithCompanionLogger(log),
	)
	log.WithField("responder", r.Name()).Infof("phone listening on %s", cfg.Transport.ChannelPrefix)
	if err := companion.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("phone stopped: %v", err)
	}
	log.Info("phone stopped")
}
