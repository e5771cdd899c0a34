// Command seed loads the ingredient and tag catalogs from CSV files.
// Ingredients are streamed with COPY through a staging table so the full
// catalog (a few thousand rows) loads in one round trip; existing rows are
// left untouched.
package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/logger"
	"github.com/plateful/backend/internal/validation"
)

func main() {
	ingredientsPath := flag.String("ingredients", "", "CSV file with name,measurement_unit rows")
	tagsPath := flag.String("tags", "", "CSV file with name,slug,color rows")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if *ingredientsPath != "" {
		n, err := seedIngredients(db, *ingredientsPath)
		if err != nil {
			log.Fatal("ingredient seeding failed", zap.Error(err))
		}
		log.Info("ingredients seeded", zap.Int64("rows", n))
	}
	if *tagsPath != "" {
		n, err := seedTags(db, *tagsPath)
		if err != nil {
			log.Fatal("tag seeding failed", zap.Error(err))
		}
		log.Info("tags seeded", zap.Int64("rows", n))
	}
	if *ingredientsPath == "" && *tagsPath == "" {
		log.Warn("nothing to do, pass -ingredients and/or -tags")
	}
}

func seedIngredients(db *sql.DB, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TEMP TABLE ingredients_stage (name text, measurement_unit text) ON COMMIT DROP`); err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(pq.CopyIn("ingredients_stage", "name", "measurement_unit"))
	if err != nil {
		return 0, err
	}

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading csv: %w", err)
		}
		if record[0] == "" || record[1] == "" {
			continue
		}
		if _, err := stmt.Exec(record[0], record[1]); err != nil {
			return 0, err
		}
	}
	if _, err := stmt.Exec(); err != nil {
		return 0, err
	}
	if err := stmt.Close(); err != nil {
		return 0, err
	}

	result, err := tx.Exec(`
		INSERT INTO ingredients (id, created_at, updated_at, name, measurement_unit)
		SELECT gen_random_uuid(), now(), now(), name, measurement_unit
		FROM ingredients_stage
		ON CONFLICT (name, measurement_unit) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	inserted, _ := result.RowsAffected()
	return inserted, tx.Commit()
}

func seedTags(db *sql.DB, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	var inserted int64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading csv: %w", err)
		}
		name, err := validation.Name(record[0])
		if err != nil {
			return 0, fmt.Errorf("tag %q: %w", record[0], err)
		}
		slug, err := validation.Slug(record[1])
		if err != nil {
			return 0, fmt.Errorf("tag %q: %w", record[0], err)
		}
		color, err := validation.HexColor(record[2])
		if err != nil {
			return 0, fmt.Errorf("tag %q: %w", record[0], err)
		}

		result, err := db.Exec(`
			INSERT INTO tags (id, created_at, updated_at, name, slug, color)
			VALUES (gen_random_uuid(), now(), now(), $1, $2, $3)
			ON CONFLICT (slug) DO NOTHING`, name, slug, color)
		if err != nil {
			return 0, err
		}
		n, _ := result.RowsAffected()
		inserted += n
	}
	return inserted, nil
}
