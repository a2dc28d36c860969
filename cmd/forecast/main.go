package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"DemandCast/internal/di"
	"DemandCast/internal/domain/models"
	"DemandCast/internal/usecase"
	"DemandCast/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	product := flag.String("product", "", "product code to forecast (empty lists the top products)")
	horizon := flag.Int("horizon", models.DefaultHorizonWeeks, "forecast horizon in weeks (1-15)")
	backend := flag.String("backend", string(models.BackendTrendChangepoint), "trend_changepoint | auto_order_ar | exponential_smoothing")
	out := flag.String("out", ".", "output directory or .csv file path; - writes to stdout")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	uc, cleanup, err := di.InitializeForecastUseCase(cfg)
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	code := run(uc, *product, *horizon, *backend, *out)
	cleanup()
	os.Exit(code)
}

func run(uc *usecase.ForecastUseCase, product string, horizon int, backend, out string) int {
	if strings.TrimSpace(product) == "" {
		for i, p := range uc.Products() {
			fmt.Printf("%2d  %-12s %d\n", i+1, p.ProductCode, p.TotalQuantity)
		}
		return 0
	}

	ctx := context.Background()
	params := usecase.ForecastParams{ProductCode: product, HorizonWeeks: horizon, Backend: backend}
	name, data, err := uc.Export(ctx, params)
	if err != nil {
		log.Printf("forecast failed: %v", err)
		if errors.Is(err, models.ErrInvalidHorizon) || errors.Is(err, models.ErrUnknownBackend) || errors.Is(err, models.ErrUnknownProduct) {
			return 2
		}
		return 1
	}

	if out == "-" {
		_, _ = os.Stdout.Write(data)
		return 0
	}
	path := out
	if !strings.HasSuffix(strings.ToLower(out), ".csv") {
		path = filepath.Join(out, name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("write %s: %v", path, err)
		return 1
	}
	log.Printf("wrote %s", path)
	return 0
}
