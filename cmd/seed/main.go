package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"guidepost/internal/bundle"
	"guidepost/internal/config"
	guidesSvc "guidepost/internal/domain/services/guides"
	"guidepost/internal/repository/postgres"
	postgresGuides "guidepost/internal/repository/postgres/guides"
	contentSvc "guidepost/internal/service/content"
	guideSvc "guidepost/internal/service/guide"
	journeySvc "guidepost/internal/service/journey"
	"guidepost/internal/trust"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed guides (for use with shell scripts)")
	clearData := flag.Bool("clear-data", false, "Clear all guides and journeys (keep schema)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations outside dev mode
	if !cfg.DevMode && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) unless DEV_MODE=true")
	}

	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required for seeding")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *clearData {
		log.Printf("🧹 Clearing data only (prefix: %q)", cfg.TablePrefix)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (prefix: %q)", cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding bundled guides (prefix: %q)", cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	// Exit early if schema-only mode
	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Exit early if clear-data mode (just clear and exit)
	if *clearData {
		log.Println("🧹 Clearing existing guides and journeys...")
		if err := clearAllData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	// Build the content pipeline the same way the server does, so seeded
	// guides go through sanitization and the trust gate
	policy, err := trust.LoadPolicy()
	if cfg.TrustPolicyFile != "" {
		policy, err = trust.LoadPolicyFile(cfg.TrustPolicyFile)
	}
	if err != nil {
		log.Fatalf("Failed to load trust policy: %v", err)
	}
	validator := trust.NewValidator(policy, cfg.DevMode)
	sanitizer := contentSvc.NewSanitizer(validator)
	parser := contentSvc.NewParser(validator)

	registry, err := bundle.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load bundled guides: %v", err)
	}

	// Create repositories and services
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	guideRepo := postgresGuides.NewGuideRepository(repoConfig)
	journeyRepo := postgresGuides.NewJourneyRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	guideService := guideSvc.NewGuideService(guideRepo, sanitizer, parser, cfg.DevMode, logger)
	journeyService := journeySvc.NewJourneyService(journeyRepo, guideRepo, txManager, logger)

	// Clear existing data so reseeding is deterministic
	log.Println("⚠️  Clearing existing guides and journeys...")
	if err := clearAllData(ctx, pool, tables); err != nil {
		log.Printf("Warning: Could not clear data: %v", err)
	}

	// Create the starter journey that holds the bundled guides
	summary := "Bundled guides that ship with the server, from first login to provisioning."
	journey, err := journeyService.CreateJourney(ctx, &guidesSvc.CreateJourneyRequest{
		Title:   "Grafana Foundations",
		Slug:    "grafana-foundations",
		Summary: &summary,
	})
	if err != nil {
		log.Fatalf("❌ Failed to create starter journey: %v", err)
	}
	log.Printf("✅ Created journey: %s (ID: %s)", journey.Title, journey.ID)

	// Seed every bundled guide as a milestone
	entries := registry.List()
	for i, entry := range entries {
		bundled, err := registry.Get(entry.ID)
		if err != nil {
			log.Printf("❌ Failed to load bundled guide '%s': %v", entry.ID, err)
			continue
		}

		guide, err := guideService.CreateGuide(ctx, &guidesSvc.CreateGuideRequest{
			Title:     entry.Title,
			Slug:      entry.ID,
			SourceURL: &bundled.BaseURL,
			JourneyID: &journey.ID,
			Milestone: i + 1,
			HTML:      bundled.HTML,
		})
		if err != nil {
			log.Printf("❌ Failed to create guide '%s': %v", entry.ID, err)
			continue
		}

		log.Printf("✅ Created guide %d/%d: %s (ID: %s, Blocks: %d)",
			i+1, len(entries), guide.Slug, guide.ID, len(guide.Blocks))
	}

	log.Println("🎉 Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Create journeys table
	createJourneys := `
		CREATE TABLE IF NOT EXISTS ` + tables.Journeys + ` (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			slug TEXT NOT NULL,
			summary TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createJourneys); err != nil {
		return err
	}

	// Create guides table. Blocks are the JSONB content tree; search_text is
	// the flattened plain text the full-text search runs over.
	createGuides := `
		CREATE TABLE IF NOT EXISTS ` + tables.Guides + ` (
			id UUID PRIMARY KEY,
			journey_id UUID REFERENCES ` + tables.Journeys + `(id) ON DELETE SET NULL,
			title TEXT NOT NULL,
			slug TEXT NOT NULL,
			source_url TEXT,
			blocks JSONB NOT NULL DEFAULT '[]',
			search_text TEXT NOT NULL DEFAULT '',
			milestone INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createGuides); err != nil {
		return err
	}

	// Create indexes. Slug uniqueness is scoped to live rows so a deleted
	// guide's slug can be reused.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `journeys_slug_unique ON ` + tables.Journeys + `(slug) WHERE deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `guides_slug_unique ON ` + tables.Guides + `(slug) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `guides_journey_milestone ON ` + tables.Guides + `(journey_id, milestone) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `guides_search ON ` + tables.Guides + ` USING GIN (to_tsvector('english', search_text))`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Guides,
		tables.Journeys,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}

// clearAllData hard-deletes every guide and journey row
func clearAllData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	if _, err := pool.Exec(ctx, "DELETE FROM "+tables.Guides); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, "DELETE FROM "+tables.Journeys); err != nil {
		return err
	}

	return nil
}
