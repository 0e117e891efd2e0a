package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/auth"
	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/relay"
	"github.com/oggyb/campus-match/internal/repository"
)

// AppContext holds shared dependencies (config, DB, Redis, logger, token
// verification and the relay hub).
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Tokens     *auth.TokenIssuer
	Auth       *auth.Authenticator
	Hub        *relay.Hub
}

// New creates a new AppContext. The token issuer and authenticator are
// derived from cfg.Auth.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, hub *relay.Hub, logger *slog.Logger) *AppContext {
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Tokens:     tokens,
		Auth:       auth.NewAuthenticator(tokens, repository.NewUserRepository(db)),
		Hub:        hub,
	}
}
