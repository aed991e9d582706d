package main // votemamu web frontend

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/config"
	"github.com/votemamu/web/internal/explorer"
	"github.com/votemamu/web/internal/handler"
	"github.com/votemamu/web/internal/inbox"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/middleware"
	"github.com/votemamu/web/internal/poster"
	"github.com/votemamu/web/internal/realtime"
	"github.com/votemamu/web/internal/router"
	"github.com/votemamu/web/internal/session"
	"github.com/votemamu/web/internal/web"
)

func main() {
	cfg := config.Load()

	logs, err := logging.NewGoLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatal(err)
	}
	lg := logs.GetLogger("votemamu")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// nil when redis is unreachable: sessions stay in memory, cache and
	// rate limiting pass through
	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable, using in-memory sessions")
	}

	client := api.New(cfg.APIBaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		api.WithLogger(logs.GetLogger("api")),
	)
	signer := session.NewSigner(cfg.SessionSecret)
	adminStore := newStore(session.RealmAdmin, session.AdminAuth{Client: client}, rdb, cfg, logs)
	marketAuth := session.MarketAuth{Client: client}
	marketStore := newStore(session.RealmMarket, marketAuth, rdb, cfg, logs)

	e := echo.New()
	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatal(err)
	}
	e.Renderer = renderer
	e.Use(middleware.RequestID())

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logs.GetLogger("cache"))
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logs.GetLogger("ratelimit"))
	secure := cfg.Env != "dev"

	router.RegisterRoutes(e)

	taxonomy := explorer.NewTaxonomyCache(client, explorer.DefaultTaxonomyTTL, logs.GetLogger("taxonomy"))
	explorerH := handler.NewExplorerHandler(client, taxonomy, cfg.PerPage, cfg.AssetBaseURL, logs.GetLogger("explorer"))
	publicH := handler.NewPublicHandler(client, cfg.AssetBaseURL, logs.GetLogger("public"))
	var posterH *handler.PosterHandler
	if composer, err := poster.FromFiles(cfg.PosterTemplate, cfg.PosterFont); err != nil {
		lg.Error("poster generator disabled", "error", err)
	} else {
		var remover poster.BackgroundRemover
		if cfg.BGRemovalURL != "" {
			remover = poster.NewHTTPRemover(cfg.BGRemovalURL, &http.Client{Timeout: cfg.HTTPTimeout})
		}
		posterH = handler.NewPosterHandler(composer, remover, logs.GetLogger("poster"))
	}
	router.RegisterPublic(e, explorerH, publicH, posterH, cache, limit)

	hub := inbox.NewHub(logs.GetLogger("inbox"))
	adminStore.Subscribe(func(ev session.Event) {
		if ev.Kind == session.EventLogout || ev.Kind == session.EventExpire {
			hub.Drop(ev.Session.ID)
		}
	})
	go hub.Sweep(ctx, cfg.SessionTTL, time.Minute)
	if cfg.RealtimeURL != "" {
		go func() {
			if err := hub.Watch(ctx, realtime.NewAMQP(cfg.RealtimeURL, logs.GetLogger("realtime")), cfg.RealtimeChan); err != nil {
				lg.Error("realtime subscription failed", "channel", cfg.RealtimeChan, "error", err)
			}
		}()
	}

	adminAuthH := handler.NewAuthHandler(adminStore, signer, "/admin/login", "/admin/candidates", logs.GetLogger("auth"))
	adminAuthH.Secure = secure
	adminH := handler.NewAdminHandler(client, logs.GetLogger("admin"))
	adminH.Taxonomy = taxonomy
	router.RegisterAdmin(e, adminAuthH, adminH,
		handler.NewInboxHandler(hub, client, logs.GetLogger("inbox")),
		middleware.SessionConfig{Store: adminStore, Signer: signer, LoginPath: "/admin/login", Secure: secure, Logger: lg},
		limit,
	)

	marketAuthH := handler.NewAuthHandler(marketStore, signer, "/market/login", "/market/products", logs.GetLogger("auth"))
	marketAuthH.Secure = secure
	marketAuthH.Registrar = marketAuth
	marketH := handler.NewMarketHandler(client, cfg.AssetBaseURL, cfg.PerPage, logs.GetLogger("market"))
	marketH.Pause = cfg.DownloadPause
	router.RegisterMarket(e, marketAuthH, marketH,
		middleware.SessionConfig{Store: marketStore, Signer: signer, LoginPath: "/market/login", Secure: secure, Logger: lg},
		cache, limit,
	)

	addr := ":" + cfg.Port
	lg.Info("listening", "addr", addr, "env", cfg.Env)

	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func newStore(realm session.Realm, auth session.Authenticator, rdb *redis.Client, cfg config.Config, logs *logging.GoLogger) *session.Store {
	var storage session.Storage = session.NewMemoryStorage()
	if rdb != nil {
		storage = session.NewRedisStorage(rdb, "sess:"+string(realm))
	}
	return session.NewStore(realm, auth, storage,
		session.WithTTL(cfg.SessionTTL),
		session.WithLogger(logs.GetLogger("session."+string(realm))),
	)
}
