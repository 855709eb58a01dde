//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/truwl/capanno-utils/internal/domain"
)

func InitializeApplication(settings domain.Settings, logging LoggingConfig) (*Application, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
