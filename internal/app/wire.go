//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/tair/storefront/internal/config"
)

// InitializeApp builds the state service with all dependencies
func InitializeApp(cfg *config.Config) (*App, error) {
	wire.Build(AllSet)
	return nil, nil
}
