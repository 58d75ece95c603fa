package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-payment-engine/internal/config"
	"course-payment-engine/internal/infra/db/postgres"
)

// Sets up a clean, predictable database state for local runs and manual
// end-to-end testing: creates the engine's tables plus minimal stand-ins for
// the externally-owned users/products tables, then seeds catalog fixtures.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	schemaPath := flag.String("schema", "deploy/postgres/init.sql", "path to the schema file")
	seed := flag.Bool("seed", true, "seed demo users and products")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	schema, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("could not read schema from %s: %v", *schemaPath, err)
	}

	log.Println("[1/2] Creating schema...")
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}

	if *seed {
		log.Println("[2/2] Seeding demo users and catalog...")
		seedCatalog(ctx, pool)
	}

	log.Println("setup complete")
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) {
	stmts := []struct {
		sql  string
		args []interface{}
	}{
		{`INSERT INTO users (id) VALUES ($1) ON CONFLICT DO NOTHING;`, []interface{}{"demo-user"}},
		{`INSERT INTO products (id, type) VALUES ($1,$2) ON CONFLICT DO NOTHING;`, []interface{}{"go-course", "single"}},
		{`INSERT INTO products (id, type) VALUES ($1,$2) ON CONFLICT DO NOTHING;`, []interface{}{"backend-bundle", "bundle"}},
		{`INSERT INTO product_programs (product_id, program_id) VALUES ($1,$2) ON CONFLICT DO NOTHING;`, []interface{}{"go-course", "prog-go"}},
		{`INSERT INTO product_programs (product_id, program_id) VALUES ($1,$2) ON CONFLICT DO NOTHING;`, []interface{}{"backend-bundle", "prog-go"}},
		{`INSERT INTO product_programs (product_id, program_id) VALUES ($1,$2) ON CONFLICT DO NOTHING;`, []interface{}{"backend-bundle", "prog-sql"}},
		{`INSERT INTO product_programs (product_id, program_id) VALUES ($1,$2) ON CONFLICT DO NOTHING;`, []interface{}{"backend-bundle", "prog-k8s"}},
	}
	for _, st := range stmts {
		if _, err := pool.Exec(ctx, st.sql, st.args...); err != nil {
			log.Printf("seed: %v", err)
		}
	}
}
