package db

import (
	"context"
	"fmt"

	"statusdeck/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ConnectToDB builds the pgx pool and fails fast when the database is
// unreachable.
func ConnectToDB(ctx context.Context, dbCfg *config.DBConfig, log *zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	poolCfg.MaxConns = dbCfg.MaxOpenConns
	poolCfg.MinConns = dbCfg.MinIdleConns
	poolCfg.MaxConnLifetime = dbCfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = dbCfg.ConnMaxIdleTime

	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		log.Debug().Msg("db connection established")
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}

	healthCtx, cancel := context.WithTimeout(ctx, dbCfg.HealthTimeout)
	defer cancel()

	if err := pool.Ping(healthCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	log.Info().
		Int32("max_conns", dbCfg.MaxOpenConns).
		Msg("database pool ready")
	return pool, nil
}
