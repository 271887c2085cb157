package main

import (
	"context"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/srvdns/srvdns-go"
	"github.com/srvdns/srvdns-go/jsoncfg"
	"github.com/srvdns/srvdns-go/logging"
	"github.com/srvdns/srvdns-go/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version  bool
	fmtConf  bool
	testConf bool
	confPath string
	zapConf  string
	logLevel zapcore.Level

	name           string
	serverAddrPort netip.AddrPort
	timeout        time.Duration
)

func init() {
	flag.BoolVar(&version, "version", false, "Print version information and exit")
	flag.BoolVar(&fmtConf, "fmtConf", false, "Format the configuration file")
	flag.BoolVar(&testConf, "testConf", false, "Test the configuration file and exit")
	flag.StringVar(&confPath, "confPath", "", "Path to the JSON configuration file")
	flag.StringVar(&zapConf, "zapConf", "console", "Preset name or path to the JSON configuration file for building the zap logger.\nAvailable presets: console, console-nocolor, console-notime, systemd, production, development")
	flag.TextVar(&logLevel, "logLevel", zapcore.InfoLevel, "Log level for the console and systemd presets.\nAvailable levels: debug, info, warn, error, dpanic, panic, fatal")
	flag.StringVar(&name, "name", "", "Service name to resolve once, printing the ordered targets")
	flag.TextVar(&serverAddrPort, "server", netip.AddrPort{}, "Upstream DNS server address and port for one-shot resolution")
	flag.DurationVar(&timeout, "timeout", 20*time.Second, "One-shot resolution timeout")
}

func main() {
	flag.Parse()

	if version {
		os.Stdout.WriteString("srvdns-go " + srvdns.Version + "\n")
		if info, ok := debug.ReadBuildInfo(); ok {
			os.Stdout.WriteString(info.String())
		}
		return
	}

	logger, err := logging.NewZapLogger(zapConf, logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var sc service.Config
	if confPath != "" {
		if err = jsoncfg.Open(confPath, &sc); err != nil {
			logger.Fatal("Failed to load config",
				zap.String("confPath", confPath),
				zap.Error(err),
			)
		}
	}
	if serverAddrPort.IsValid() {
		sc.Upstream.AddrPort = serverAddrPort
	}

	if fmtConf {
		if err = jsoncfg.Save(confPath, &sc); err != nil {
			logger.Fatal("Failed to save config",
				zap.String("confPath", confPath),
				zap.Error(err),
			)
		}
		logger.Info("Formatted config file", zap.String("confPath", confPath))
	}

	if testConf {
		if _, err = sc.Manager(logger); err != nil {
			logger.Fatal("Config test failed",
				zap.String("confPath", confPath),
				zap.Error(err),
			)
		}
		logger.Info("Config test OK", zap.String("confPath", confPath))
		return
	}

	if name != "" {
		resolveOnce(logger, &sc)
		return
	}

	logger.Info("srvdns-go", zap.String("version", srvdns.Version))

	m, err := sc.Manager(logger)
	if err != nil {
		logger.Fatal("Failed to create service manager",
			zap.String("confPath", confPath),
			zap.Error(err),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("Received exit signal", zap.Stringer("signal", sig))
		signal.Stop(sigCh)
		cancel()
	}()

	if err = m.Start(ctx); err != nil {
		logger.Fatal("Failed to start services", zap.Error(err))
	}

	<-ctx.Done()
	m.Stop()
}

func resolveOnce(logger *zap.Logger, sc *service.Config) {
	m, err := sc.Manager(logger)
	if err != nil {
		logger.Fatal("Failed to create service manager", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := m.Resolver().Resolve(ctx, name)
	if err != nil {
		logger.Fatal("Resolution failed",
			zap.String("name", name),
			zap.Error(err),
		)
	}

	logger.Info("Resolved SRV record set",
		zap.String("name", name),
		zap.String("canonicalName", result.CanonicalName),
		zap.Stringer("RCode", result.RCode),
		zap.Int("records", len(result.Records)),
		zap.Int("dropped", result.Dropped),
	)

	for _, r := range result.Records {
		fmt.Println(r)
	}
}
