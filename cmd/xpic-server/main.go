package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"xpicai/backend/emb"
	"xpicai/backend/internal/server"
	"xpicai/backend/xray"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config.json (default: ./config.json)")
		addr       = flag.String("addr", ":5001", "HTTP listen address")
		preload    = flag.Bool("preload", true, "Preload the classifier when no remote credential is configured")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	if err := run(*configPath, *addr, *preload, logger); err != nil {
		logger.Fatalf("xpic-server: %v", err)
	}
}

func run(configPath, addr string, preload bool, logger *log.Logger) error {
	cfg, err := xray.LoadConfig(configPath)
	if err != nil {
		return err
	}

	classifier := xray.NewClassifier(func() (xray.Encoder, error) {
		enc := &emb.Encoder{}
		if err := enc.Init(emb.Config{
			OrtDLL:          cfg.Encoder.OrtDLL,
			VisionModelPath: cfg.Encoder.VisionModelPath,
			TextModelPath:   cfg.Encoder.TextModelPath,
			TokenizerPath:   cfg.Encoder.TokenizerPath,
			MaxSeqLen:       cfg.Encoder.MaxSeqLen,
			ImageSize:       cfg.Encoder.ImageSize,
		}); err != nil {
			return nil, err
		}
		return enc, nil
	}, logger)
	defer classifier.Close()

	reader := xray.NewRemoteReader(cfg.Remote, logger)
	analyzer := xray.NewAnalyzer(classifier, reader, logger)

	remoteActive := reader.Configured()
	fmt.Printf("\n  XPic-AI 后端 · http://localhost%s\n", addr)
	if remoteActive {
		fmt.Println("  主模型: 通义千问 VL API（独立读片）")
		fmt.Println("  备用:   BiomedCLIP（仅千问不可用时启用）")
	} else {
		fmt.Printf("  主模型: BiomedCLIP 本地分析（%d 种病症）\n", xray.CatalogueSize())
		fmt.Println("  提示: export DASHSCOPE_API_KEY=你的key 可启用千问 VL")
	}
	fmt.Println()

	// With a remote credential the classifier is only a fallback, so it
	// stays lazy; otherwise every request needs it.
	if !remoteActive && preload {
		logger.Printf("[startup] preloading classifier")
		if err := classifier.Warmup(context.Background()); err != nil {
			return err
		}
	}

	srv := server.New(analyzer, remoteActive, logger)
	logger.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, srv.Routes())
}
