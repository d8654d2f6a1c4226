package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Connect opens the postgres pool and applies the schema.
func Connect(dsn string, logger zerolog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info().Int("migrations", len(migrations)).Msg("database migrations applied")

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            name TEXT NOT NULL,
            role TEXT NOT NULL,
            avatar_url TEXT,
            emoji TEXT DEFAULT '👤',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS locations (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL REFERENCES users(id),
            latitude TEXT NOT NULL,
            longitude TEXT NOT NULL,
            location_name TEXT,
            status TEXT NOT NULL DEFAULT 'active',
            timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS locations_user_time_idx ON locations (user_id, timestamp DESC);`,
	`CREATE TABLE IF NOT EXISTS attendance (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL REFERENCES users(id),
            check_in_time TIMESTAMPTZ NOT NULL,
            check_out_time TIMESTAMPTZ,
            status TEXT NOT NULL DEFAULT 'present',
            notes TEXT
        );`,
	`CREATE INDEX IF NOT EXISTS attendance_user_checkin_idx ON attendance (user_id, check_in_time);`,
	`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            is_system_message BOOLEAN NOT NULL DEFAULT FALSE
        );`,
}

func runMigrations(db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
