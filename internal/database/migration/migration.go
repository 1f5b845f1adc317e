package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_estimates",
		SQL: `CREATE TABLE IF NOT EXISTS estimates (
  id                         UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  method                     TEXT             NOT NULL CHECK (method IN ('direct', 'polygon', 'image')),
  feedstock                  TEXT             NOT NULL,
  pile_height_m              DOUBLE PRECISION NOT NULL CHECK (pile_height_m > 0),
  area_m2                    DOUBLE PRECISION NOT NULL CHECK (area_m2 >= 0),
  area_hectares              DOUBLE PRECISION NOT NULL CHECK (area_hectares >= 0),
  pile_area_m2               DOUBLE PRECISION NOT NULL,
  pile_area_hectares         DOUBLE PRECISION NOT NULL,
  volume_m3                  DOUBLE PRECISION NOT NULL,
  biomass_mass_kg            DOUBLE PRECISION NOT NULL,
  biochar_yield_kg           DOUBLE PRECISION NOT NULL,
  application_rate_kg_per_ha DOUBLE PRECISION NOT NULL,
  image_path                 TEXT,
  created_at                 TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_estimates_feedstock",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_estimates_feedstock ON estimates (feedstock);`,
	},
	{
		Name: "create_index_estimates_method",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_estimates_method ON estimates (method);`,
	},
	{
		Name: "create_index_estimates_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_estimates_created_at ON estimates (created_at);`,
	},
}

// EnsureMigrated checks if the 'estimates' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.estimates') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
