package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/config"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/librarian"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/logging"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/server"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/tui"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/vectorindex"
)

var (
	flagConfig   string
	flagLogLevel string
	flagTTS      bool
	flagImage    bool
	flagRebuild  bool

	cfg    *config.AppConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "smartlibrarian",
	Short: "Book recommendation assistant over a local library corpus",
	Long: `smartlibrarian recommends books from a local corpus of summaries.

A query is checked by a moderation gate, matched against a semantic index
of the corpus, and answered by a chat model that picks one book and
explains why. Narration audio and a cover illustration can be generated
in the background for every recommendation.

Run without arguments to start the interactive chat.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and generated media files",
	RunE:  runServe,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load the corpus into the vector index and print a digest",
	RunE:  runIndex,
}

func init() {
	// assigned here instead of in the literal: the closure mentions rootCmd,
	// which the compiler rejects as an initialization cycle
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		if flagConfig != "" {
			cfg, err = config.Load(flagConfig)
		} else {
			cfg, _, err = config.LoadDefault()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		level := cfg.Logging.Level
		if flagLogLevel != "" {
			level = flagLogLevel
		} else if cmd == rootCmd {
			// the chat UI owns the terminal; keep the logger quiet there
			level = "error"
		}
		logger, err = logging.New(level)
		return err
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override log level (debug, info, warn, error)")

	askCmd.Flags().BoolVar(&flagTTS, "tts", false, "narrate the answer to an audio file")
	askCmd.Flags().BoolVar(&flagImage, "image", false, "generate a cover illustration for the recommendation")
	indexCmd.Flags().BoolVar(&flagRebuild, "rebuild", false, "clear the index before seeding")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	assistant, err := buildAssistant(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer drainJobs(assistant)

	if _, err := tea.NewProgram(tui.New(assistant)).Run(); err != nil {
		return fmt.Errorf("run chat ui: %w", err)
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	assistant, err := buildAssistant(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer drainJobs(assistant)

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	reply, err := assistant.Chat(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(reply.Answer)
	if reply.Blocked {
		return nil
	}
	if flagTTS {
		assistant.DispatchSpeech(reply.Answer, reply.Title)
	}
	if flagImage && reply.Title != "" && reply.Summary != "" {
		assistant.DispatchImage(reply.Title, reply.Summary)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	assistant, err := buildAssistant(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer drainJobs(assistant)

	srv := server.New(assistant, server.Config{
		Address:     cfg.Server.Address,
		CORSOrigins: cfg.Server.CORSOrigins,
		MediaDir:    cfg.Media.Dir,
	}, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Server.Address) }()
	logger.Info("http api listening", zap.String("address", cfg.Server.Address))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	core, err := buildBookIndex(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if flagRebuild {
		if err := core.index.Clear(ctx); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
	}
	added, err := vectorindex.EnsureSeeded(ctx, core.index, core.emb, core.docs)
	if err != nil {
		return err
	}
	count, err := core.index.Count(ctx)
	if err != nil {
		return fmt.Errorf("count index points: %w", err)
	}
	fmt.Printf("%d books, %d documents indexed (%d added this run, %s/%s).\n",
		core.library.Len(), count, added, core.emb.Name(), cfg.Index.Type)
	if core.digest != "" {
		fmt.Println(core.digest)
	}
	return nil
}

// drainJobs gives in-flight media jobs a bounded window to finish before the
// process exits; the window covers one full job timeout.
func drainJobs(assistant *librarian.Assistant) {
	ctx, cancel := context.WithTimeout(context.Background(), seconds(cfg.Media.JobTimeoutSecs)+time.Second)
	defer cancel()
	if err := assistant.Drain(ctx); err != nil {
		logger.Warn("media jobs still running at exit", zap.Error(err))
	}
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
