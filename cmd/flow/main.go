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
	"flow-cli/internal/tui"

	"github.com/joho/godotenv"
)

var log = logger.Named("cli")

func main() {
	_ = godotenv.Load()
	logger.Configure()

	cli, err := parseArgs("flow", os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flow: %v\n", err)
		os.Exit(1)
	}
	if cli.writeCfg {
		if err := config.Save(cli.cfgPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "flow: write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("config written to %s\n", cfg.Source)
		return
	}

	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = logger.DefaultLogPath
	}
	if logFile, _, err := logger.SetupFile(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "flow: failed to initialize log file: %v\n", err)
	} else {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.Log.Level)

	var rlog logger.ResponderLogger = logger.NoopResponderLog{}
	if entry, closer, _, err := logger.SetupComponentFile("responder", logger.DefaultResponderLogPath); err != nil {
		log.Warnf("failed to initialize responder log: %v", err)
	} else {
		defer closer.Close()
		rlog = logger.NewResponderLog(entry.Logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	link, err := bootstrap.OpenWatchLink(ctx, cfg, rlog)
	if err != nil {
		fatalf("open link to the phone: %v", err)
	}
	defer link.Close()

	svc := bootstrap.NewSpeech(cfg.Speech)
	if cli.typed {
		svc = nil
	}
	log.WithField("transport", cfg.Transport.Kind).Info("watch starting")

	res, err := tui.Run(tui.Options{
		Config: cfg,
		Link:   link,
		Speech: svc,
		Buzzer: bootstrap.NewBuzzer(cfg.Haptic),
	})
	if err != nil {
		fatalf("tui error: %v", err)
	}
	log.Infof("watch closed with %d messages", len(res.Entries))
}

func loadConfig(cli cliArgs) (config.Config, error) {
	cfg, err := config.Load(cli.cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg = config.ApplyKVOverrides(cfg, cli.overrideList())
	config.ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fatalf 同时写日志与 stderr；日志已重定向到文件，终端上需要可见的错误。
func fatalf(format string, args ...any) {
	log.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, "flow: "+format+"\n", args...)
	os.Exit(1)
}
