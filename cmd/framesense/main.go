package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/framesense/agent/internal/auth"
	"github.com/framesense/agent/internal/bridge"
	"github.com/framesense/agent/internal/cache"
	"github.com/framesense/agent/internal/capture"
	"github.com/framesense/agent/internal/config"
	"github.com/framesense/agent/internal/logging"
	"github.com/framesense/agent/internal/ocr"
	"github.com/framesense/agent/internal/overlay"
	"github.com/framesense/agent/internal/screen"
	"github.com/framesense/agent/internal/workerpool"
)

var (
	version = "0.1.0"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "framesense",
	Short: "FrameSense capture agent",
	Long:  `FrameSense Agent - screen capture and selection backend for the FrameSense desktop app`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the capture agent",
	Run: func(cmd *cobra.Command, args []string) {
		runAgent()
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in to the FrameSense account API",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		login(args[0])
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored login session",
	Run: func(cmd *cobra.Command, args []string) {
		logout()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account and display status",
	Run: func(cmd *cobra.Command, args []string) {
		checkStatus()
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture [x] [y] [width] [height]",
	Short: "Capture a region once and print the payload to stdout",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		captureOnce(args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("FrameSense Agent v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is framesense.yaml in the user config dir)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Validate()
	return cfg
}

func initLogging(cfg *config.Config) {
	if cfg.LogFile != "" {
		w, err := logging.NewRotatingWriter(cfg.LogFile, 10, 3)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		logging.Init(cfg.LogFormat, cfg.LogLevel, w)
		return
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stdout)
}

func runAgent() {
	cfg := loadConfig()
	initLogging(cfg)
	log := logging.L("main")

	log.Info("starting agent", "version", version, "addr", cfg.BridgeListenAddr)

	topo := screen.NewResolver(screen.NewOSEnumerator())
	backend := capture.NewBackend()

	captures := cache.New(topo, backend, cache.Options{
		MaxBytes:     int(cfg.CacheMaxBytes),
		EntryTTL:     time.Duration(cfg.CacheTTLSeconds) * time.Second,
		ScreenTTL:    time.Duration(cfg.ScreenInfoTTLSeconds) * time.Second,
		ScratchBytes: cfg.ScratchBufferBytes,
	})

	sessions := auth.NewSessionStore(cfg.StateDir)
	accounts := auth.NewClient(cfg.APIBaseURL, sessions)

	workers := workerpool.New(cfg.MaxConcurrentCommands, cfg.CommandQueueSize)

	br := bridge.New(cfg.BridgeListenAddr, bridge.Deps{
		Cache:   captures,
		Topo:    topo,
		Backend: backend,
		Auth:    accounts,
		OCR:     ocr.NewService(),
	}, workers)

	idleTimeout := time.Duration(cfg.OverlayIdleTimeoutSeconds) * time.Second
	surfaces := overlay.NewPool(br.Compositor(), topo, idleTimeout)
	br.SetOverlay(surfaces)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go captures.Run(ctx, 10*time.Second)
	go surfaces.Run(ctx, 30*time.Second)

	errCh := make(chan error, 1)
	go func() {
		errCh <- br.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("bridge failed", "error", err)
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	workers.Shutdown(shutdownCtx)
}

func login(email string) {
	cfg := loadConfig()
	initLogging(cfg)

	fmt.Print("Password: ")
	var password string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
			os.Exit(1)
		}
		password = string(raw)
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	sessions := auth.NewSessionStore(cfg.StateDir)
	client := auth.NewClient(cfg.APIBaseURL, sessions)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := client.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logged in as %s (%s tier)\n", user.Email, user.Tier)
}

func logout() {
	cfg := loadConfig()
	sessions := auth.NewSessionStore(cfg.StateDir)
	if err := sessions.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Logout failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Logged out.")
}

func checkStatus() {
	cfg := loadConfig()

	sessions := auth.NewSessionStore(cfg.StateDir)
	user, err := sessions.Load()
	switch {
	case err != nil:
		fmt.Printf("Account: error reading session (%v)\n", err)
	case user == nil:
		fmt.Println("Account: not logged in")
	default:
		fmt.Printf("Account: %s (%s tier)\n", user.Email, user.Tier)
	}

	topo := screen.NewResolver(screen.NewOSEnumerator())
	area, monitors, err := topo.TotalArea()
	if err != nil {
		fmt.Printf("Displays: unavailable (%v)\n", err)
		return
	}
	fmt.Printf("Displays: %d, virtual desktop %dx%d\n", len(monitors), area.Width, area.Height)
	for _, m := range monitors {
		primary := ""
		if m.IsPrimary {
			primary = " (primary)"
		}
		fmt.Printf("  #%d %dx%d at (%d,%d)%s\n", m.ID, m.Width, m.Height, m.X, m.Y, primary)
	}
}

func captureOnce(args []string) {
	cfg := loadConfig()
	initLogging(cfg)

	var rect capture.Rect
	for i, dst := range []*int{&rect.X, &rect.Y, &rect.Width, &rect.Height} {
		if _, err := fmt.Sscanf(args[i], "%d", dst); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid coordinate %q\n", args[i])
			os.Exit(1)
		}
	}

	topo := screen.NewResolver(screen.NewOSEnumerator())
	captures := cache.New(topo, capture.NewBackend(), cache.Options{
		MaxBytes: int(cfg.CacheMaxBytes),
	})

	res, err := captures.GetOrCapture(rect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Capture failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(res.Payload)
}
