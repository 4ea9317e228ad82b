// Command seed loads sample users and products into an empty database.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shopkart/shopkart/internal/config"
	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/repository/postgres"
	"github.com/shopkart/shopkart/internal/service"
	"github.com/shopkart/shopkart/migrations"
	"github.com/shopkart/shopkart/pkg/database"
	"github.com/shopkart/shopkart/pkg/logger"
)

var sampleUsers = []domain.CreateUserInput{
	{
		Name:    "John Doe",
		Email:   "john@example.com",
		Phone:   "9876543210",
		Address: "123 Main Street, Mumbai, Maharashtra 400001",
	},
	{
		Name:    "Jane Smith",
		Email:   "jane@example.com",
		Phone:   "9876543211",
		Address: "456 Park Avenue, Delhi, Delhi 110001",
	},
}

// Prices are in paise.
var sampleProducts = []domain.CreateProductInput{
	{
		Name:        "Wireless Bluetooth Headphones",
		Description: "High-quality wireless headphones with noise cancellation",
		Price:       299900,
		Stock:       50,
		Category:    "Electronics",
		ImageURL:    "https://example.com/headphones.jpg",
	},
	{
		Name:        "Smart Watch Pro",
		Description: "Feature-rich smartwatch with health monitoring",
		Price:       599900,
		Stock:       30,
		Category:    "Electronics",
		ImageURL:    "https://example.com/smartwatch.jpg",
	},
	{
		Name:        "Cotton T-Shirt",
		Description: "Comfortable 100% cotton t-shirt",
		Price:       49900,
		Stock:       100,
		Category:    "Clothing",
		ImageURL:    "https://example.com/tshirt.jpg",
	},
	{
		Name:        "Running Shoes",
		Description: "Lightweight running shoes with cushioning",
		Price:       349900,
		Stock:       40,
		Category:    "Footwear",
		ImageURL:    "https://example.com/shoes.jpg",
	},
	{
		Name:        "Laptop Backpack",
		Description: "Water-resistant backpack with laptop compartment",
		Price:       129900,
		Stock:       60,
		Category:    "Accessories",
		ImageURL:    "https://example.com/backpack.jpg",
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("shopkart-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, ".", log); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	users := service.NewUserService(postgres.NewUserRepository(pool), log)
	products := service.NewProductService(postgres.NewProductRepository(pool), log)

	var userCount int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&userCount); err != nil {
		log.Error("failed to count users", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if userCount == 0 {
		for _, input := range sampleUsers {
			if _, err := users.Register(ctx, input); err != nil {
				log.Error("failed to seed user",
					slog.String("email", input.Email),
					slog.String("error", err.Error()),
				)
				os.Exit(1)
			}
		}
		log.Info("sample users created", slog.Int("count", len(sampleUsers)))
	}

	var productCount int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&productCount); err != nil {
		log.Error("failed to count products", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if productCount == 0 {
		for _, input := range sampleProducts {
			if _, err := products.CreateProduct(ctx, input); err != nil {
				log.Error("failed to seed product",
					slog.String("name", input.Name),
					slog.String("error", err.Error()),
				)
				os.Exit(1)
			}
		}
		log.Info("sample products created", slog.Int("count", len(sampleProducts)))
	}

	log.Info("seed complete")
}
