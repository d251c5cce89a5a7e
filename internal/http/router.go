package http

import (
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/solawi/internal/observability"
)

// APIPrefix is the path prefix of every JSON endpoint.
const APIPrefix = "/api/v1"

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	Handler        *Handler
	Logger         *zap.Logger
	RequestTimeout time.Duration
	// LoginLimiter throttles POST /login. Nil disables limiting.
	LoginLimiter *rate.Limiter
	CORSOrigins  []string
}

// NewRouter builds the full HTTP handler: CORS and panic recovery around the mux router
// carrying correlation ids, metrics and the API routes.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handler

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(cfg.Logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	api := router.PathPrefix(APIPrefix).Subrouter()
	api.Use(TrafficMiddleware)
	api.Use(TimeoutMiddleware(cfg.RequestTimeout))
	api.Handle("/login", RateLimitMiddleware(cfg.LoginLimiter)(http.HandlerFunc(h.Login))).Methods(http.MethodPost)

	// PATCH /users/{id} only needs a valid token so users can replace their initial password.
	token := api.NewRoute().Subrouter()
	token.Use(h.requireAuth(false))
	token.HandleFunc("/users/{id:[0-9]+}", h.PatchUser).Methods(http.MethodPatch)

	authed := api.NewRoute().Subrouter()
	authed.Use(h.requireAuth(true))
	authed.HandleFunc("/shares", h.ListShares).Methods(http.MethodGet)
	authed.HandleFunc("/shares", h.CreateShare).Methods(http.MethodPost)
	authed.HandleFunc("/shares/payment_status", h.PaymentStatus).Methods(http.MethodGet)
	authed.HandleFunc("/shares/merge", h.MergeShares).Methods(http.MethodPost)
	authed.HandleFunc("/shares/{id:[0-9]+}", h.GetShare).Methods(http.MethodGet)
	authed.HandleFunc("/shares/{id:[0-9]+}", h.UpdateShare).Methods(http.MethodPost)
	authed.HandleFunc("/shares/{id:[0-9]+}", h.PatchShare).Methods(http.MethodPatch)
	authed.HandleFunc("/shares/{id:[0-9]+}/emails", h.ShareEmails).Methods(http.MethodGet)
	authed.HandleFunc("/shares/{id:[0-9]+}/deposits", h.ShareDeposits).Methods(http.MethodGet)
	authed.HandleFunc("/shares/{id:[0-9]+}/bets", h.ShareBets).Methods(http.MethodGet)
	authed.HandleFunc("/shares/{id:[0-9]+}/bets", h.CreateBet).Methods(http.MethodPost)
	authed.HandleFunc("/shares/{id:[0-9]+}/bets/{bet_id:[0-9]+}", h.DeleteBet).Methods(http.MethodDelete)
	authed.HandleFunc("/bets/{id:[0-9]+}", h.UpdateBet).Methods(http.MethodPut)
	authed.HandleFunc("/members", h.ListMembers).Methods(http.MethodGet)
	authed.HandleFunc("/members", h.CreateMember).Methods(http.MethodPost)
	authed.HandleFunc("/members/{id:[0-9]+}", h.PatchMember).Methods(http.MethodPatch)
	authed.HandleFunc("/members/{id:[0-9]+}", h.DeleteMember).Methods(http.MethodDelete)
	authed.HandleFunc("/stations", h.ListStations).Methods(http.MethodGet)
	authed.HandleFunc("/deposits/", h.CreateDeposit).Methods(http.MethodPost)
	authed.HandleFunc("/deposits", h.CreateDeposit).Methods(http.MethodPost)
	authed.HandleFunc("/deposits/import", h.ImportDeposits).Methods(http.MethodPost)
	authed.HandleFunc("/deposits/{id:[0-9]+}", h.PatchDeposit).Methods(http.MethodPatch)
	authed.HandleFunc("/person/{id:[0-9]+}", h.GetPerson).Methods(http.MethodGet)
	authed.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)

	sentry := sentryhttp.New(sentryhttp.Options{Repanic: true})
	var handler http.Handler = sentry.Handle(router)
	handler = RecoverMiddleware(cfg.Logger)(handler)
	return CORSMiddleware(cfg.CORSOrigins)(handler)
}
