package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/warelog/skaner/internal/config"
	"github.com/warelog/skaner/internal/domain/models"
	"github.com/warelog/skaner/internal/ledger"
	"github.com/warelog/skaner/internal/scheduler"
	"github.com/warelog/skaner/internal/server/handlers"
	"github.com/warelog/skaner/internal/server/router"
	inventorysvc "github.com/warelog/skaner/internal/service/inventory"
	scannersvc "github.com/warelog/skaner/internal/service/scanner"
	stocksvc "github.com/warelog/skaner/internal/service/stock"
	"github.com/warelog/skaner/pkg/clients/odoo"
	"github.com/warelog/skaner/pkg/logger"
	"github.com/warelog/skaner/pkg/notifier"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := odoo.NewClient(cfg.Odoo)
	uid, err := client.Authenticate(ctx)
	if err != nil {
		baseLogger.Fatal("odoo authentication failed", zap.Error(err))
	}
	baseLogger.Info("connected to odoo", zap.Int("uid", uid), zap.String("database", cfg.Odoo.Database))

	inventorySvc := inventorysvc.NewService(client, logger.Named(baseLogger, "svc.inventory"))
	if err := inventorySvc.ResolveDefaultLocation(ctx); err != nil {
		baseLogger.Warn("no default storage location, transactions will fail", zap.Error(err))
	}

	engine := stocksvc.NewEngine(client, cfg.Scanner, logger.Named(baseLogger, "svc.stock"))
	history := ledger.New(cfg.Scanner.HistoryCapacity)
	audio := notifier.NewAudioNotifier(cfg.Sounds.Paths, logger.Named(baseLogger, "notifier"))

	// Every scan source funnels into one queue; the loop below is the only
	// consumer, so scans are processed strictly one at a time.
	lines := make(chan string, 16)
	prompter := scannersvc.NewLinePrompter(lines, os.Stdout)

	interpreter := scannersvc.NewInterpreter(
		cfg.Scanner,
		inventorySvc,
		engine,
		history,
		audio,
		prompter,
		os.Stdout,
		logger.Named(baseLogger, "svc.scanner"),
	)

	go readLines(lines)

	if cfg.Bridge.Port != "" {
		startBridge(ctx, cfg.Bridge.Port, lines, baseLogger)
	}

	sched := scheduler.NewScheduler(cfg.Heartbeat, client, logger.Named(baseLogger, "scheduler"))
	sched.Start()
	defer sched.Stop()

	printBanner(cfg.Scanner)
	runLoop(ctx, interpreter, lines, cfg.Scanner)

	fmt.Println("closing scanner session")
}

// runLoop consumes scan lines until an exit word, closed input, or an
// interrupt signal.
func runLoop(ctx context.Context, interpreter *scannersvc.Interpreter, lines <-chan string, cfg config.ScannerConfig) {
	tokens := models.Tokens{
		Add:       cfg.AddToken,
		Remove:    cfg.RemoveToken,
		Multi:     cfg.MultiToken,
		Undo:      cfg.UndoToken,
		ExitWords: cfg.ExitWords,
	}

	for {
		fmt.Print("\nscan barcode: ")

		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}

			scan := models.ClassifyScan(line, tokens)
			if scan.Kind == models.ScanExit {
				return
			}
			if scan.Kind == models.ScanEmpty {
				continue
			}

			interpreter.ProcessScan(ctx, line)
		}
	}
}

func readLines(lines chan<- string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
	close(lines)
}

func startBridge(ctx context.Context, port string, lines chan<- string, baseLogger *zap.Logger) {
	handler := handlers.NewScanHandler(lines, logger.Named(baseLogger, "handlers.scan"))
	engine := router.New(handler, logger.Named(baseLogger, "router"))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("scan bridge starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("scan bridge crashed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			baseLogger.Error("scan bridge shutdown failed", zap.Error(err))
		}
	}()
}

func printBanner(cfg config.ScannerConfig) {
	fmt.Println("==================================================")
	fmt.Println("          WAREHOUSE BARCODE SCANNER")
	fmt.Println("==================================================")
	fmt.Printf("add mode:      %s\n", cfg.AddToken)
	fmt.Printf("remove mode:   %s\n", cfg.RemoveToken)
	fmt.Printf("multi toggle:  %s\n", cfg.MultiToken)
	fmt.Printf("undo:          %s\n", cfg.UndoToken)
	fmt.Println("type 'exit' or 'quit' to finish")
	fmt.Println("==================================================")
}
