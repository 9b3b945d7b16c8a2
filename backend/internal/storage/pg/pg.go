package pg

import (
	"context"
	"database/sql"

	"github.com/itchan-dev/imagestore/backend/internal/service"
	"github.com/itchan-dev/imagestore/shared/config"
	"github.com/itchan-dev/imagestore/shared/logger"
	sharedpg "github.com/itchan-dev/imagestore/shared/storage/pg"
)

type Storage struct {
	db *sql.DB
}

var _ service.ImageStorage = (*Storage)(nil)

func New(ctx context.Context, cfg config.Pg) (*Storage, error) {
	log := logger.For("pg")
	log.Info("connecting to db", "host", cfg.Host, "port", cfg.Port, "dbname", cfg.Dbname)
	db, err := sharedpg.Connect(ctx, cfg, sharedpg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	log.Info("successfully connected to db")
	return &Storage{db: db}, nil
}

// Migrate applies the embedded schema to the connected database.
func (s *Storage) Migrate(ctx context.Context) error {
	return sharedpg.Migrate(ctx, s.db)
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}
