// Command seed-db loads a starter catalog, store configuration, and a
// default admin API key into the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/auth"
	"github.com/xenking/storefront-api/internal/repository"
)

type catalogJSON struct {
	Categories []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"categories"`
	Products []struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		SKU      string          `json:"sku"`
		Price    decimal.Decimal `json:"price"`
		Category string          `json:"category"`
		Stock    int             `json:"stock"`
		Variants []struct {
			ID    string          `json:"id"`
			Title string          `json:"title"`
			SKU   string          `json:"sku"`
			Price decimal.Decimal `json:"price"`
			Stock int             `json:"stock"`
		} `json:"variants"`
	} `json:"products"`
	Delivery []struct {
		ID        string          `json:"id"`
		Label     string          `json:"label"`
		Amount    decimal.Decimal `json:"amount"`
		IsDefault bool            `json:"isDefault"`
	} `json:"delivery"`
	Charges []struct {
		ID       string          `json:"id"`
		Label    string          `json:"label"`
		Type     string          `json:"type"`
		CalcType string          `json:"calcType"`
		Amount   decimal.Decimal `json:"amount"`
	} `json:"charges"`
	Coupons []struct {
		Code           string          `json:"code"`
		CalcType       string          `json:"calcType"`
		Amount         decimal.Decimal `json:"amount"`
		MinOrderAmount decimal.Decimal `json:"minOrderAmount"`
	} `json:"coupons"`
}

func main() {
	var (
		databaseURL  string
		catalogFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or STOREFRONT_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or STOREFRONT_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("STOREFRONT_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or STOREFRONT_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("STOREFRONT_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	for _, c := range catalog.Categories {
		_, err := pool.Exec(ctx, `INSERT INTO categories (id, name, slug) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug`,
			c.ID, c.Name, c.Slug)
		if err != nil {
			return errors.Wrapf(err, "upsert category %s", c.ID)
		}
	}

	slog.Info("upserting products", slog.Int("count", len(catalog.Products)))

	for _, p := range catalog.Products {
		_, err := pool.Exec(ctx, `INSERT INTO products (id, name, sku, price, category_id) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, sku = EXCLUDED.sku,
				price = EXCLUDED.price, category_id = EXCLUDED.category_id`,
			p.ID, p.Name, p.SKU, p.Price, nullable(p.Category))
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		if len(p.Variants) == 0 {
			if err := upsertInventory(ctx, pool, p.ID, "", p.Stock); err != nil {
				return errors.Wrapf(err, "upsert inventory for product %s", p.ID)
			}
		}

		for _, v := range p.Variants {
			_, err := pool.Exec(ctx, `INSERT INTO product_variants (id, product_id, title, sku, price)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, sku = EXCLUDED.sku, price = EXCLUDED.price`,
				v.ID, p.ID, v.Title, v.SKU, v.Price)
			if err != nil {
				return errors.Wrapf(err, "upsert variant %s", v.ID)
			}
			if err := upsertInventory(ctx, pool, p.ID, v.ID, v.Stock); err != nil {
				return errors.Wrapf(err, "upsert inventory for variant %s", v.ID)
			}
		}
	}

	for _, d := range catalog.Delivery {
		_, err := pool.Exec(ctx, `INSERT INTO delivery (id, label, amount, is_default) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET label = EXCLUDED.label, amount = EXCLUDED.amount,
				is_default = EXCLUDED.is_default`,
			d.ID, d.Label, d.Amount, d.IsDefault)
		if err != nil {
			return errors.Wrapf(err, "upsert delivery option %s", d.ID)
		}
	}

	for _, c := range catalog.Charges {
		_, err := pool.Exec(ctx, `INSERT INTO charge_options (id, label, type, calc_type, amount)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET label = EXCLUDED.label, type = EXCLUDED.type,
				calc_type = EXCLUDED.calc_type, amount = EXCLUDED.amount`,
			c.ID, c.Label, c.Type, c.CalcType, c.Amount)
		if err != nil {
			return errors.Wrapf(err, "upsert charge option %s", c.ID)
		}
	}

	for _, c := range catalog.Coupons {
		_, err := pool.Exec(ctx, `INSERT INTO coupons (id, code, calc_type, amount, min_order_amount)
			VALUES ($1, $2, $3, $4, NULLIF($5, 0))
			ON CONFLICT (code) DO UPDATE SET calc_type = EXCLUDED.calc_type, amount = EXCLUDED.amount,
				min_order_amount = EXCLUDED.min_order_amount`,
			uuid.NewString(), c.Code, c.CalcType, c.Amount, c.MinOrderAmount)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}
	}

	return nil
}

func upsertInventory(ctx context.Context, pool *pgxpool.Pool, productID, variantID string, quantity int) error {
	_, err := pool.Exec(ctx, `INSERT INTO inventory (id, product_id, variant_id, quantity)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (product_id, COALESCE(variant_id, '')) DO UPDATE SET quantity = EXCLUDED.quantity`,
		uuid.NewString(), productID, variantID, quantity)
	return err
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default admin API key")

	keyHash := auth.HashKey([]byte(pepper), apiKey)

	_, err := pool.Exec(ctx, `INSERT INTO api_keys (id, key_hash, name, scopes) VALUES ($1, $2, $3, $4)
		ON CONFLICT (key_hash) DO UPDATE SET name = EXCLUDED.name, scopes = EXCLUDED.scopes`,
		"default", keyHash, "Default admin key", []string{"*"})
	if err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
