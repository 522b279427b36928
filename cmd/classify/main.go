package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/convoml/intent-classifier-go/internal/app"
	"github.com/convoml/intent-classifier-go/internal/config"
	"github.com/convoml/intent-classifier-go/internal/domain"
	"github.com/convoml/intent-classifier-go/internal/util"
	"go.uber.org/zap"
)

func main() {
	outputDir := flag.String("output", "", "output directory (overrides OUTPUT_DIR)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: classify [-output DIR] <input.json>")
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	conversations, err := readConversations(inputPath)
	if err != nil {
		logger.Error("Failed to read input", zap.String("path", inputPath), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Conversations loaded",
		zap.String("path", inputPath),
		zap.Int("count", len(conversations)),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 60*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	report, err := container.Classifier.ClassifyBatch(context.Background(), conversations)
	if err != nil {
		logger.Error("Batch classification failed", zap.Error(err))
		os.Exit(1)
	}

	zipPath, err := container.Output.WriteFiles(report.Results)
	if err != nil {
		logger.Error("Failed to write output files", zap.Error(err))
		os.Exit(1)
	}

	for _, failure := range report.Failures {
		logger.Warn("Conversation skipped",
			zap.String("conversation_id", failure.ConversationID),
			zap.String("reason", failure.Reason),
		)
	}

	logger.Info("Done",
		zap.Int("results", len(report.Results)),
		zap.Int("failures", len(report.Failures)),
		zap.String("archive", zipPath),
	)
}

func readConversations(path string) ([]domain.Conversation, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var conversations []domain.Conversation
	if err := json.Unmarshal(content, &conversations); err != nil {
		return nil, fmt.Errorf("invalid JSON file: %w", err)
	}

	return conversations, nil
}
