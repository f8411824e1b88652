package main

import (
	"context"
	"flag"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/pricewatch/backend/internal/config"
	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/migrate"
	"github.com/pricewatch/backend/internal/pricing"
	"github.com/pricewatch/backend/internal/repository"
	"github.com/pricewatch/backend/internal/service"
)

type demoPlatform struct {
	name  string
	url   string
	base  float64
	trend float64 // relative change over the whole history
}

type demoProduct struct {
	title     string
	brand     string
	category  string
	image     string
	platforms []demoPlatform
}

var demoProducts = []demoProduct{
	{
		title:    "Galaxy S24 Ultra 256GB",
		brand:    "Samsung",
		category: "Mobiles",
		image:    "https://images.example.com/s24-ultra.jpg",
		platforms: []demoPlatform{
			{name: "Amazon", url: "https://www.amazon.in/dp/demo-s24", base: 129999, trend: -0.25},
			{name: "Flipkart", url: "https://www.flipkart.com/demo-s24", base: 131999, trend: -0.18},
		},
	},
	{
		title:    "WH-1000XM5 Wireless Headphones",
		brand:    "Sony",
		category: "Audio",
		image:    "https://images.example.com/wh1000xm5.jpg",
		platforms: []demoPlatform{
			{name: "Amazon", url: "https://www.amazon.in/dp/demo-xm5", base: 29990, trend: -0.08},
			{name: "Croma", url: "https://www.croma.com/demo-xm5", base: 31990, trend: -0.05},
			{name: "Reliance Digital", url: "https://www.reliancedigital.in/demo-xm5", base: 30990, trend: 0.02},
		},
	},
	{
		title:    "MacBook Air M3 13-inch",
		brand:    "Apple",
		category: "Laptops",
		image:    "https://images.example.com/macbook-air-m3.jpg",
		platforms: []demoPlatform{
			{name: "Flipkart", url: "https://www.flipkart.com/demo-mba", base: 114900, trend: -0.12},
		},
	},
}

// history produces one sample per day ending yesterday: a linear trend with
// a weekly wobble.
func history(p demoPlatform, days int, end time.Time) []service.PricePointInput {
	points := make([]service.PricePointInput, days)
	for i := range points {
		progress := float64(i) / float64(days-1)
		wobble := 0.02 * math.Sin(2*math.Pi*float64(i)/7)
		price := p.base * (1 + p.trend*progress + wobble)
		points[i] = service.PricePointInput{
			Price: service.Price(math.Round(price)),
			Date:  end.AddDate(0, 0, i-days),
		}
	}
	return points
}

func main() {
	destroy := flag.Bool("destroy", false, "Delete all data instead of seeding")
	days := flag.Int("days", 45, "Days of price history per platform")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.Env, os.Stdout)
	ctx := context.Background()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := migrate.Up(ctx, db.DB); err != nil {
		log.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *destroy {
		if _, err := db.ExecContext(ctx, `TRUNCATE alerts, tracked_items, products, users CASCADE`); err != nil {
			log.Error("Failed to destroy data", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("Data destroyed")
		return
	}

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	users := service.NewUserService(repository.NewUserRepository(db), tokens)
	products := service.NewProductService(repository.NewProductRepository(db), nil,
		pricing.DefaultRecommendationPolicy(), service.ForecastOptions{})

	admin, err := users.EnsureAdmin(ctx, service.RegisterInput{
		Name:     "Admin",
		Email:    getEnv("SEED_ADMIN_EMAIL", "admin@pricewatch.local"),
		Password: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
	})
	if err != nil {
		log.Error("Failed to seed admin", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("Admin ready", slog.String("email", admin.Email))

	end := time.Now().UTC().Truncate(24 * time.Hour)
	for _, d := range demoProducts {
		input := service.CreateProductInput{
			Title:       d.title,
			Image:       d.image,
			Description: d.brand + " " + d.title,
			Brand:       d.brand,
			Category:    d.category,
		}
		for _, p := range d.platforms {
			h := history(p, *days, end)
			input.Platforms = append(input.Platforms, service.PlatformInput{
				Name:         p.name,
				URL:          p.url,
				CurrentPrice: service.Price(*h[len(h)-1].Price),
				History:      h,
			})
		}
		product, err := products.Create(ctx, input)
		if err != nil {
			log.Error("Failed to seed product", slog.String("title", d.title), slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("Product seeded", slog.String("id", product.ID.String()), slog.String("title", product.Title))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
