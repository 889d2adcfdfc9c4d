package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/dukerupert/foodgram/internal/config"
	"github.com/dukerupert/foodgram/internal/handler"
	"github.com/dukerupert/foodgram/internal/media"
	"github.com/dukerupert/foodgram/internal/middleware"
	"github.com/dukerupert/foodgram/internal/recipe"
	"github.com/dukerupert/foodgram/internal/shopping"
	"github.com/dukerupert/foodgram/internal/store"
	ws "github.com/dukerupert/foodgram/internal/websocket"
)

// Login and registration allow this many attempts per client IP per window.
const (
	authBurst  = 10
	authWindow = time.Minute
)

type Server struct {
	db          *sql.DB
	cfg         config.Config
	hub         *ws.Hub
	authH       *handler.AuthHandler
	userH       *handler.UserHandler
	catalogueH  *handler.CatalogueHandler
	recipeH     *handler.RecipeHandler
	tokenStore  *store.TokenStore
	userStore   *store.UserStore
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg config.Config, images *media.Store, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	tokenStore := store.NewTokenStore(db)
	tagStore := store.NewTagStore(db)
	ingredientStore := store.NewIngredientStore(db)
	recipeStore := store.NewRecipeStore(db)
	favoriteStore := store.NewFavoriteStore(db)
	cartStore := store.NewCartStore(db)
	subStore := store.NewSubscriptionStore(db)

	pres := handler.NewPresenter(userStore, recipeStore, subStore, favoriteStore, cartStore)
	manager := recipe.NewManager(recipeStore, tagStore, ingredientStore, images, hub, logger.With("component", "recipe"))

	return &Server{
		db:         db,
		cfg:        cfg,
		hub:        hub,
		authH:      handler.NewAuthHandler(userStore, tokenStore, logger.With("component", "auth")),
		userH:      handler.NewUserHandler(userStore, subStore, images, pres, cfg.PageSize, logger.With("component", "user")),
		catalogueH: handler.NewCatalogueHandler(tagStore, ingredientStore, logger.With("component", "catalogue")),
		recipeH: handler.NewRecipeHandler(
			manager, recipeStore, favoriteStore, cartStore,
			shopping.NewBuilder(cartStore), pres, cfg.PageSize, cfg.Domain,
			logger.With("component", "recipe_handler"),
		),
		tokenStore:  tokenStore,
		userStore:   userStore,
		rateLimiter: middleware.NewRateLimiter(authBurst, authWindow),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the live feed hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /media/", http.StripPrefix(media.URLPrefix, http.FileServer(http.Dir(s.cfg.MediaDir))))
	mux.HandleFunc("GET /api/ws", ws.HandleFeed(s.hub, s.cfg.CORSOrigins, s.logger.With("component", "feed")))

	s.registerAuthRoutes(mux)
	s.registerUserRoutes(mux)
	s.registerCatalogueRoutes(mux)
	s.registerRecipeRoutes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
	})

	var h http.Handler = mux
	h = middleware.Authenticate(s.tokenStore, s.userStore, s.logger.With("component", "auth"))(h)
	h = c.Handler(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return middleware.Recover(s.logger)(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := s.db.PingContext(r.Context()); err != nil {
		status = "degraded"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP)(h)
}

func authed(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(h)
}

func (s *Server) registerAuthRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/auth/token/login/{$}", s.rateLimitedHandler(s.authH.Login))
	mux.Handle("POST /api/auth/token/logout/{$}", authed(s.authH.Logout))
}

func (s *Server) registerUserRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/users/{$}", s.rateLimitedHandler(s.userH.Register))
	mux.HandleFunc("GET /api/users/{$}", s.userH.List)
	mux.Handle("GET /api/users/me/{$}", authed(s.userH.Me))
	mux.Handle("PUT /api/users/me/avatar/{$}", authed(s.userH.SetAvatar))
	mux.Handle("DELETE /api/users/me/avatar/{$}", authed(s.userH.DeleteAvatar))
	mux.Handle("POST /api/users/set_password/{$}", authed(s.userH.SetPassword))
	mux.Handle("GET /api/users/subscriptions/{$}", authed(s.userH.Subscriptions))
	mux.HandleFunc("GET /api/users/{id}/{$}", s.userH.Get)
	mux.Handle("POST /api/users/{id}/subscribe/{$}", authed(s.userH.Subscribe))
	mux.Handle("DELETE /api/users/{id}/subscribe/{$}", authed(s.userH.Unsubscribe))
}

func (s *Server) registerCatalogueRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tags/{$}", s.catalogueH.ListTags)
	mux.HandleFunc("GET /api/tags/{id}/{$}", s.catalogueH.GetTag)
	mux.HandleFunc("GET /api/ingredients/{$}", s.catalogueH.ListIngredients)
	mux.HandleFunc("GET /api/ingredients/{id}/{$}", s.catalogueH.GetIngredient)
}

func (s *Server) registerRecipeRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/recipes/{$}", s.recipeH.List)
	mux.Handle("POST /api/recipes/{$}", authed(s.recipeH.Create))
	mux.Handle("GET /api/recipes/download_shopping_cart/{$}", authed(s.recipeH.DownloadShoppingCart))
	mux.HandleFunc("GET /api/recipes/{id}/{$}", s.recipeH.Get)
	mux.Handle("PATCH /api/recipes/{id}/{$}", authed(s.recipeH.Update))
	mux.Handle("DELETE /api/recipes/{id}/{$}", authed(s.recipeH.Delete))
	mux.HandleFunc("GET /api/recipes/{id}/get-link/{$}", s.recipeH.GetLink)
	mux.Handle("POST /api/recipes/{id}/favorite/{$}", authed(s.recipeH.AddFavorite))
	mux.Handle("DELETE /api/recipes/{id}/favorite/{$}", authed(s.recipeH.RemoveFavorite))
	mux.Handle("POST /api/recipes/{id}/shopping_cart/{$}", authed(s.recipeH.AddToCart))
	mux.Handle("DELETE /api/recipes/{id}/shopping_cart/{$}", authed(s.recipeH.RemoveFromCart))
}
