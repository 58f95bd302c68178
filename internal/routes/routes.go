package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	"github.com/Danx101/AIL-APP-sub003/internal/cache"
	"github.com/Danx101/AIL-APP-sub003/internal/config"
	"github.com/Danx101/AIL-APP-sub003/internal/handlers"
	infraRepo "github.com/Danx101/AIL-APP-sub003/internal/infra/repository"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/middleware"
	ucAppointment "github.com/Danx101/AIL-APP-sub003/internal/usecase/appointment"
	ucSession "github.com/Danx101/AIL-APP-sub003/internal/usecase/session"
)

// RegisterRoutes wires the whole API. The returned sweep use case also
// drives the background auto-completion runner.
func RegisterRoutes(
	r *gin.Engine,
	db *gorm.DB,
	cfg *config.Config,
	balance *cache.BalanceCache,
) *ucAppointment.Sweep {

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	ledgerService := ledger.NewService()

	// ======================================================
	// USE CASES — APPOINTMENTS
	// ======================================================
	createAppointmentUC := ucAppointment.NewCreateAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	changeStatusUC := ucAppointment.NewChangeStatus(
		db,
		ledgerService,
		balance,
		auditDispatcher,
	)

	sweepUC := ucAppointment.NewSweep(
		db,
		ledgerService,
		balance,
		auditDispatcher,
	)

	deleteAppointmentUC := ucAppointment.NewDeleteAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	listByDateUC := ucAppointment.NewListAppointmentsByDate(appointmentRepo)
	listByMonthUC := ucAppointment.NewListAppointmentsByMonth(appointmentRepo)

	// ======================================================
	// USE CASES — SESSIONS
	// ======================================================
	purchaseBlockUC := ucSession.NewPurchaseBlock(db, balance, auditDispatcher)
	balanceUC := ucSession.NewGetBalance(db, balance)
	reverseCompletionUC := ucSession.NewReverseCompletion(
		db,
		ledgerService,
		balance,
		auditDispatcher,
	)
	adjustBlockUC := ucSession.NewAdjustBlock(
		db,
		ledgerService,
		balance,
		auditDispatcher,
	)

	// ======================================================
	// HANDLERS
	// ======================================================
	studioHandler := handlers.NewStudioHandler(db)
	customerHandler := handlers.NewCustomerHandler(db, balanceUC)
	leadHandler := handlers.NewLeadHandler(db, auditDispatcher)
	appointmentTypeHandler := handlers.NewAppointmentTypeHandler(db)

	appointmentHandler := handlers.NewAppointmentHandler(
		db,
		createAppointmentUC,
		changeStatusUC,
		sweepUC,
		deleteAppointmentUC,
		listByDateUC,
		listByMonthUC,
	)

	sessionHandler := handlers.NewSessionHandler(
		db,
		purchaseBlockUC,
		reverseCompletionUC,
		adjustBlockUC,
	)

	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me/studio", studioHandler.GetMeStudio)
			secured.PATCH("/me/studio", studioHandler.UpdateMeStudio)

			// ------------------------------
			// CUSTOMERS
			// ------------------------------
			secured.GET("/me/customers", customerHandler.List)
			secured.POST("/me/customers", customerHandler.Create)
			secured.GET("/me/customers/:id", customerHandler.Get)
			secured.GET("/me/customers/:id/session-balance", customerHandler.SessionBalance)
			secured.GET("/me/customers/:id/transactions", customerHandler.Transactions)

			secured.GET("/me/customers/:id/session-blocks", sessionHandler.ListBlocks)
			secured.POST("/me/customers/:id/session-blocks", sessionHandler.PurchaseBlock)

			// ------------------------------
			// LEADS
			// ------------------------------
			secured.GET("/me/leads", leadHandler.List)
			secured.POST("/me/leads", leadHandler.Create)
			secured.PATCH("/me/leads/:id", leadHandler.Update)
			secured.POST("/me/leads/:id/convert", leadHandler.Convert)

			// ------------------------------
			// APPOINTMENT TYPES
			// ------------------------------
			secured.GET("/me/appointment-types", appointmentTypeHandler.List)
			secured.POST("/me/appointment-types", appointmentTypeHandler.Create)
			secured.PATCH("/me/appointment-types/:id", appointmentTypeHandler.Update)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.POST("/me/appointments", appointmentHandler.Create)
			secured.GET("/me/appointments", appointmentHandler.ListByDate)
			secured.GET("/me/appointments/month", appointmentHandler.ListByMonth)
			secured.PATCH("/me/appointments/:id/status", appointmentHandler.ChangeStatus)
			secured.DELETE("/me/appointments/:id", appointmentHandler.Delete)
			secured.POST("/me/appointments/sweep", appointmentHandler.Sweep)
			secured.POST("/me/appointments/:id/reverse-completion", sessionHandler.ReverseCompletion)

			// ------------------------------
			// SESSION BLOCKS (ADMIN)
			// ------------------------------
			secured.POST("/me/session-blocks/:id/adjust", sessionHandler.AdjustBlock)

			secured.GET("/me/audit-logs", auditLogsHandler.List)
		}
	}

	return sweepUC
}
