package main

import (
	"log"

	"zbozi-konverze/internal/core/config"
	"zbozi-konverze/internal/core/httpclient"
	"zbozi-konverze/internal/core/logger"
	"zbozi-konverze/internal/core/proxy"
	"zbozi-konverze/internal/core/server"
	conversionadapter "zbozi-konverze/internal/features/conversions/adapters"
	conversionhandler "zbozi-konverze/internal/features/conversions/handler"
	"zbozi-konverze/internal/features/conversions/ports"
	conversionservice "zbozi-konverze/internal/features/conversions/service"

	"go.uber.org/zap"
)

// @title Zbozi Konverze API
// @version 1.0
// @description This API reports shop orders as conversions to Zbozi.cz.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("shop_id", cfg.Zbozi.ShopID),
		zap.Bool("sandbox", cfg.Zbozi.Sandbox),
		logger.Secret("private_key", cfg.Zbozi.PrivateKey),
	)

	clientOpts := httpclient.Options{
		Timeout: cfg.HTTP.Timeout(),
		Proxy:   proxy.FromConfig(cfg.Proxy),
	}
	if cfg.HTTP.CAFile != "" {
		roots, err := httpclient.LoadRootCAs(cfg.HTTP.CAFile)
		if err != nil {
			l.Fatal("Failed to load CA file", zap.String("path", cfg.HTTP.CAFile), zap.Error(err))
		}
		clientOpts.RootCAs = roots
	}

	// Initialize Zbozi client
	zboziClient, err := conversionadapter.NewZboziClient(
		cfg.Zbozi.ShopID,
		cfg.Zbozi.PrivateKey,
		conversionadapter.WithSandbox(cfg.Zbozi.Sandbox),
		conversionadapter.WithHTTPClient(httpclient.NewClient(clientOpts)),
	)
	if err != nil {
		l.Fatal("Failed to create Zbozi client", zap.Error(err))
	}
	l.Info("Conversion endpoint configured", zap.String("url", zboziClient.URL()))

	// Initialize the optional WooCommerce order source and run Health Check
	var source ports.OrderSource
	if cfg.WooCommerce.Enabled() {
		wcAdapter := conversionadapter.NewWooCommerceAdapter(cfg.WooCommerce, httpclient.NewClient(clientOpts))
		if err := wcAdapter.HealthCheck(); err != nil {
			l.Fatal("WooCommerce Health Check Failed", zap.Error(err))
		}
		l.Info("WooCommerce connection verified")
		source = wcAdapter
	}

	// Initialize Conversion Service & Handler
	conversionSvc := conversionservice.NewConversionService(zboziClient, source)
	conversionHdl := conversionhandler.NewConversionHandler(conversionSvc)

	srv := server.New(cfg)

	// Register Routes
	srv.App.Post("/conversions", conversionHdl.ReportConversion)
	srv.App.Post("/conversions/validate", conversionHdl.ValidateConversion)
	srv.App.Post("/conversions/woocommerce/:id", conversionHdl.ReportWooCommerceOrder)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
