package web

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"skynet-vpn-store/internal/infra/logging"
	"skynet-vpn-store/internal/usecase"
)

type Server struct {
	accounts    usecase.AccountUseCase
	catalog     usecase.CatalogUseCase
	purchases   usecase.PurchaseUseCase
	fulfillment usecase.FulfillmentUseCase
	stats       usecase.StatsUseCase
	auth        *AuthManager
	challenge   string
	log         *zerolog.Logger
}

func NewServer(
	accounts usecase.AccountUseCase,
	catalog usecase.CatalogUseCase,
	purchases usecase.PurchaseUseCase,
	fulfillment usecase.FulfillmentUseCase,
	stats usecase.StatsUseCase,
	auth *AuthManager,
	challenge string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		accounts:    accounts,
		catalog:     catalog,
		purchases:   purchases,
		fulfillment: fulfillment,
		stats:       stats,
		auth:        auth,
		challenge:   challenge,
		log:         &l,
	}
}

// Router builds the full HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface.
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Get("/products/{id}/plans", s.handleListPlans)

		// The gateway posts here; there is no session to require.
		r.Post("/payments/callback", s.handlePaymentCallback)

		// Session-guarded surface.
		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Get("/me", s.handleMe)
			r.Put("/me/hwid", s.handleUpdateHWID)
			r.Get("/me/purchases", s.handleMyPurchases)
			r.Post("/purchases", s.handleCreatePurchase)
			r.Post("/checkout", s.handleCheckout)

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/stats", s.handleStats)
				r.Get("/purchases", s.handlePurchaseLedger)
				r.Post("/purchases/{id}/config", s.handleAttachConfig)
				r.Get("/accounts", s.handleListAccounts)
				r.Post("/accounts/{id}/config", s.handleReplaceConfig)
				r.Post("/products", s.handleCreateProduct)
				r.Post("/products/{id}/plans", s.handleCreatePlan)
			})
		})
	})

	return r
}

// requestLogger emits one debug line per request with the chi request id
// attached to the context logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.With(ctx, s.log).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// sessionMiddleware resolves the session token into an account id on the
// request context.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := withUserID(r.Context(), claims.Subject)
		ctx = logging.WithUserID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin gates privileged routes on the profile's admin flag. The check
// runs per request so revoking the flag takes effect immediately.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFrom(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		admin, err := s.accounts.IsAdmin(r.Context(), userID)
		if err != nil || !admin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// verifySignature checks the gateway signature header against the configured
// challenge. With no challenge configured every callback is accepted.
func (s *Server) verifySignature(r *http.Request) bool {
	if s.challenge == "" {
		return true
	}
	sig := r.Header.Get("X-Payment-Signature")
	return subtle.ConstantTimeCompare([]byte(sig), []byte(s.challenge)) == 1
}
