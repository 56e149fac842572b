package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/panelworks/reseller/internal/backup"
	"github.com/panelworks/reseller/internal/handler"
	"github.com/panelworks/reseller/internal/middleware"
	"github.com/panelworks/reseller/internal/model"
	"github.com/panelworks/reseller/internal/store"
)

type Server struct {
	db            *sql.DB
	userStore     *store.UserStore
	productStore  *store.ProductStore
	planStore     *store.PlanStore
	purchaseStore *store.PurchaseStore
	sessionStore  *store.SessionStore
	backupStore   *store.BackupStore
	authH         *handler.AuthHandler
	adminH        *handler.AdminHandler
	resellerH     *handler.ResellerHandler
	backupH       *handler.BackupHandler
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, backupMgr *backup.Manager, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	productStore := store.NewProductStore(db)
	planStore := store.NewPlanStore(db)
	purchaseStore := store.NewPurchaseStore(db)
	sessionStore := store.NewSessionStore(db)
	backupStore := store.NewBackupStore(db)

	return &Server{
		db:            db,
		userStore:     userStore,
		productStore:  productStore,
		planStore:     planStore,
		purchaseStore: purchaseStore,
		sessionStore:  sessionStore,
		backupStore:   backupStore,
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		adminH:        handler.NewAdminHandler(userStore, productStore, planStore, logger.With("component", "admin")),
		resellerH:     handler.NewResellerHandler(userStore, planStore, purchaseStore, logger.With("component", "reseller")),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup")),
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}
}

func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheck)

	// Login is rate-limited per client IP
	loginMw := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	mux.Handle("POST /login", loginMw(http.HandlerFunc(s.authH.Login)))

	authMw := middleware.RequireAuth(s.sessionStore, s.userStore)
	adminMw := middleware.RequireRole(model.RoleAdmin)
	resellerMw := middleware.RequireRole(model.RoleReseller)

	mux.Handle("POST /logout", authMw(http.HandlerFunc(s.authH.Logout)))

	admin := func(h http.HandlerFunc) http.Handler {
		return authMw(adminMw(h))
	}
	mux.Handle("GET /admin/resellers", admin(s.adminH.ListResellers))
	mux.Handle("POST /admin/resellers", admin(s.adminH.CreateReseller))
	mux.Handle("PUT /admin/resellers/{id}", admin(s.adminH.UpdateReseller))
	mux.Handle("DELETE /admin/resellers/{id}", admin(s.adminH.DeleteReseller))
	mux.Handle("POST /admin/resellers/{id}/credits", admin(s.adminH.AddCredits))
	mux.Handle("GET /admin/products", admin(s.adminH.ListProducts))
	mux.Handle("POST /admin/products", admin(s.adminH.CreateProduct))
	mux.Handle("PUT /admin/products/{id}", admin(s.adminH.RenameProduct))
	mux.Handle("PUT /admin/products/{id}/active", admin(s.adminH.SetProductActive))
	mux.Handle("DELETE /admin/products/{id}", admin(s.adminH.DeleteProduct))
	mux.Handle("GET /admin/plans", admin(s.adminH.ListPlans))
	mux.Handle("POST /admin/plans", admin(s.adminH.UpsertPlan))
	mux.Handle("DELETE /admin/plans/{id}", admin(s.adminH.DeletePlan))
	mux.Handle("GET /admin/backups", admin(s.backupH.List))
	mux.Handle("POST /admin/backups", admin(s.backupH.Run))
	mux.Handle("GET /admin/backups/status", admin(s.backupH.Status))
	mux.Handle("GET /admin/backups/{id}/download", admin(s.backupH.Download))
	mux.Handle("POST /admin/backups/{id}/restore", admin(s.backupH.Restore))

	reseller := func(h http.HandlerFunc) http.Handler {
		return authMw(resellerMw(h))
	}
	mux.Handle("GET /panel", reseller(s.resellerH.Panel))
	mux.Handle("POST /purchase", reseller(s.resellerH.Purchase))
	mux.Handle("GET /download/{id}", reseller(s.resellerH.Download))

	return middleware.RequestLogger(s.logger)(mux)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
