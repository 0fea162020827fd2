package repository

import (
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/ivanoskov/wallet/internal/config"
	"github.com/ivanoskov/wallet/internal/log"
)

// Backend is the store selected by DATA_BACKEND. Client is nil for the memory backend.
type Backend struct {
	Repository
	Client *supabase.Client
}

// NewBackend builds the configured store.
func NewBackend(cfg *config.Config, logger *log.Logger) (*Backend, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		logger.Info("using in-memory store", log.FieldOperation, log.OpStartup)
		return &Backend{Repository: NewMemoryRepository()}, nil
	case config.BackendSupabase:
		repo, err := NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseKey, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using supabase store", log.FieldOperation, log.OpStartup)
		return &Backend{Repository: repo, Client: repo.Client()}, nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
