package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"carball/server"
)

// carball 入口：绑定 UDP 端口，启动接收协程与 60Hz 模拟循环，可选启动管理/观战 HTTP
func main() {
	var cfgPath, logPath, adminAddr, initConfig string
	var debug bool
	flag.StringVar(&cfgPath, "config", "", "TOML config file (optional)")
	flag.StringVar(&logPath, "log", "", "log file path, overrides config; \"-\" logs to stderr")
	flag.StringVar(&adminAddr, "admin", "", "admin/spectator HTTP address, e.g. :8080; overrides config")
	flag.StringVar(&initConfig, "init-config", "", "write the default config to this path and exit")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <Port>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if initConfig != "" {
		if err := server.SaveDefault(initConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	port, err := strconv.Atoi(flag.Arg(0))
	if err != nil || port < 0 || port > 65535 {
		fmt.Fprintf(os.Stderr, "invalid port %q\n", flag.Arg(0))
		os.Exit(1)
	}

	cfg := server.DefaultConfig()
	if cfgPath != "" {
		if cfg, err = server.LoadConfig(cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	switch logPath {
	case "":
	case "-":
		cfg.Server.LogFile = ""
	default:
		cfg.Server.LogFile = logPath
	}
	if adminAddr != "" {
		cfg.Server.AdminAddr = adminAddr
	}
	cfg.Server.Debug = cfg.Server.Debug || debug

	if err := run(port, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run 持有套接字的完整生命周期，任何返回路径都会关闭它
func run(port int, cfg server.Config) error {
	if err := server.InitLogger(cfg.Server.LogFile, cfg.Server.Debug); err != nil {
		return err
	}
	defer server.SyncLogger()

	conn, err := server.ListenUDP(port)
	if err != nil {
		server.Log.Errorf("%v", err)
		return err
	}
	defer conn.Close()

	// 优雅退出（Ctrl+C）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	room := server.NewRoom(conn, cfg)

	if cfg.Server.AdminAddr != "" {
		srv := &http.Server{Addr: cfg.Server.AdminAddr, Handler: server.NewAdminMux(room)}
		go func() {
			server.Log.Infof("admin listening on %s", cfg.Server.AdminAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				server.Log.Errorf("admin listen: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	errc := make(chan error, 1)
	go func() { errc <- server.ServeUDP(ctx, conn, room) }()

	tickCtx, cancelTick := context.WithCancel(ctx)
	defer cancelTick()
	go room.Run(tickCtx)

	server.Log.Infof("carball listening on udp %s", conn.LocalAddr())

	select {
	case <-ctx.Done():
		server.Log.Info("Shutting down...")
		return nil
	case err := <-errc:
		if err != nil {
			server.Log.Errorf("%v", err)
		}
		return err
	}
}
