package handlers

import (
	"net/http"

	"github.com/reelroom/backend/internal/metrics"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	authH := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Watchlists: deps.Watchlists, Limiter: deps.Limiter}
	owner := OwnerGuard{Sessions: deps.Sessions, Enabled: deps.RequireOwner}
	lists := WatchlistHandler{
		Watchlists: deps.Watchlists,
		Presenter:  deps.Presenter,
		Posters:    deps.Posters,
		Owner:      owner,
		Limiter:    deps.Limiter,
	}
	catalog := CatalogHandler{Catalog: deps.Catalog, Limiter: deps.Limiter}
	chat := ChatHandler{Chat: deps.Chat, Limiter: deps.Limiter, AllowedOrigins: deps.AllowedOrigins}

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /register", authH.Register)
	mux.HandleFunc("POST /login", authH.Login)
	mux.HandleFunc("POST /api/auth/refresh", authH.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authH.Logout)
	mux.HandleFunc("GET /api/auth/me", authH.Me)

	mux.HandleFunc("POST /api/watchlist", lists.Create)
	mux.HandleFunc("GET /api/watchlists/{uid}", lists.List)
	mux.HandleFunc("GET /api/watchlist/{uid}/{name}", lists.Get)
	mux.HandleFunc("PUT /api/watchlist/{uid}/{name}", lists.Update)
	mux.HandleFunc("DELETE /api/watchlist/{uid}/{name}", lists.Delete)
	mux.HandleFunc("POST /api/watchlist/{uid}/{name}/add", lists.AddMedia)
	mux.HandleFunc("DELETE /api/watchlist/{uid}/{name}/remove", lists.RemoveMedia)
	mux.HandleFunc("GET /api/watchlist/{uid}/{name}/page", lists.Page)
	mux.HandleFunc("GET /api/watchlist/{uid}/{name}/overview", lists.Overview)
	mux.HandleFunc("PUT /api/watchlist/{uid}/{name}/poster", lists.UploadPoster)

	mux.HandleFunc("GET /api/catalog/search", catalog.Search)
	mux.HandleFunc("GET /api/catalog/{listing}", catalog.Browse)
	mux.HandleFunc("GET /api/catalog/{type}/{id}/similar", catalog.Similar)
	mux.HandleFunc("GET /api/catalog/{type}/{id}/credits", catalog.Credits)
	mux.HandleFunc("GET /api/catalog/tv/{id}/season/{number}", catalog.Season)

	mux.HandleFunc("POST /api/chat/create", chat.Create)
	mux.HandleFunc("POST /api/chat/{movieId}/send", chat.Send)
	mux.HandleFunc("GET /api/chat/{movieId}/messages", chat.Messages)
	mux.HandleFunc("GET /api/chat/{movieId}/live", chat.Live)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users          UserStore
	Sessions       SessionManager
	Watchlists     WatchlistService
	Presenter      WatchlistPresenter
	Posters        PosterStorage
	Catalog        CatalogService
	Chat           ChatService
	Limiter        RateLimiter
	Database       HealthChecker
	RequireOwner   bool
	AllowedOrigins []string
}
