package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quicklendx/quicklendx/internal/auth"
	auditHandler "github.com/quicklendx/quicklendx/internal/http/audit"
	backupHandler "github.com/quicklendx/quicklendx/internal/http/backup"
	bidHandler "github.com/quicklendx/quicklendx/internal/http/bid"
	invoiceHandler "github.com/quicklendx/quicklendx/internal/http/invoice"
	kycHandler "github.com/quicklendx/quicklendx/internal/http/kyc"
	ratingHandler "github.com/quicklendx/quicklendx/internal/http/rating"
	settlementHandler "github.com/quicklendx/quicklendx/internal/http/settlement"
)

func New(
	jwtSecret []byte,
	invoicesV1 *invoiceHandler.Handler,
	bidsV1 *bidHandler.Handler,
	settlementV1 *settlementHandler.Handler,
	ratingsV1 *ratingHandler.Handler,
	kycV1 *kycHandler.Handler,
	backupsV1 *backupHandler.Handler,
	auditV1 *auditHandler.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	router.Use(auth.Middleware(jwtSecret))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/invoices", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			invoicesV1.Routes(r)
			bidsV1.Routes(r)
			settlementV1.InvoiceRoutes(r)
			ratingsV1.InvoiceRoutes(r)
		})

		r.Route("/accounts", settlementV1.AccountRoutes)
		r.Route("/ratings", ratingsV1.Routes)
		r.Route("/audit", auditV1.Routes)

		r.Route("/kyc", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			kycV1.Routes(r)
		})

		r.Route("/backups", backupsV1.Routes)
	})

	return router
}
