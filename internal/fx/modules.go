package fx

import (
	"github.com/NickMickmlnn/GameTracking/internal/adapter"
	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/NickMickmlnn/GameTracking/internal/database"
	"github.com/NickMickmlnn/GameTracking/internal/igdb"
	"github.com/NickMickmlnn/GameTracking/internal/logger"
	"github.com/NickMickmlnn/GameTracking/internal/repository"
	"github.com/NickMickmlnn/GameTracking/internal/server"
	"github.com/NickMickmlnn/GameTracking/internal/service"

	"go.uber.org/fx"
)

func ProvideRemoteSearcher(client *igdb.Client) igdb.RemoteSearcher {
	return client
}

func ProvideTitleResolver(resolver *igdb.Resolver) service.TitleResolver {
	return resolver
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewGameRepository),
	fx.Provide(repository.NewCatalogRepository),
	fx.Provide(repository.NewIdentityCacheRepository),
	// igdb client + resolver
	fx.Provide(igdb.NewClient),
	fx.Provide(ProvideRemoteSearcher),
	fx.Provide(igdb.NewResolver),
	fx.Provide(ProvideTitleResolver),
	// sources
	fx.Provide(adapter.NewRegistry),
	// svc
	fx.Provide(service.NewReconciler),
	fx.Provide(service.NewRefreshService),
	fx.Provide(service.NewSearchService),
	fx.Provide(service.NewSeeder),
	// server
	fx.Provide(server.NewCatalogServer),
)
