package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/comic-store-api/internal/application/analytics"
	"github.com/jhoicas/comic-store-api/internal/application/auth"
	"github.com/jhoicas/comic-store-api/internal/application/customers"
	appinventory "github.com/jhoicas/comic-store-api/internal/application/inventory"
	"github.com/jhoicas/comic-store-api/internal/application/orders"
	"github.com/jhoicas/comic-store-api/internal/application/purchases"
	"github.com/jhoicas/comic-store-api/internal/application/usecase"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	UserUC        *usecase.UserUseCase
	ProductUC     *usecase.ProductUseCase
	SupplierUC    *usecase.SupplierUseCase
	CategoryUC    *usecase.CategoryUseCase
	Ledger        *appinventory.Ledger
	Replenishment *appinventory.ReplenishmentUseCase
	CustomerUC    *customers.UseCase
	Orders        *orders.Workflow
	Purchases     *purchases.Workflow
	Dashboard     *analytics.DashboardUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	const (
		admin     = entity.RoleAdmin
		bodeguero = entity.RoleBodeguero
		vendedor  = entity.RoleVendedor
	)
	stockWriters := RequireRole(admin, bodeguero)
	sellers := RequireRole(admin, vendedor)
	adminOnly := RequireRole(admin)

	// Auth: solo login es público; el alta de empleados la hace un admin
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.UserUC)
	authRequired := AuthMiddleware(deps.JWTSecret)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/register", authRequired, adminOnly, authHandler.Register)
	authGroup.Get("/me", authRequired, authHandler.Me)
	authGroup.Post("/change-password", authRequired, authHandler.ChangePassword)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", authRequired)

	// Products: las rutas fijas van antes de /:id
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Replenishment)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/replenishment", stockWriters, productHandler.Replenishment)
	products.Post("/", stockWriters, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", stockWriters, productHandler.Update)
	products.Delete("/:id", stockWriters, productHandler.Delete)

	suppliers := protected.Group("/suppliers")
	supplierHandler := NewSupplierHandler(deps.SupplierUC)
	suppliers.Post("/", stockWriters, supplierHandler.Create)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Put("/:id", stockWriters, supplierHandler.Update)
	suppliers.Delete("/:id", stockWriters, supplierHandler.Delete)

	categories := protected.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories.Post("/", stockWriters, categoryHandler.Create)
	categories.Get("/", categoryHandler.List)
	categories.Get("/:id", categoryHandler.GetByID)

	employees := protected.Group("/employees", adminOnly)
	employeeHandler := NewEmployeeHandler(deps.UserUC)
	employees.Get("/", employeeHandler.List)
	employees.Get("/:id", employeeHandler.GetByID)
	employees.Put("/:id", employeeHandler.Update)
	employees.Delete("/:id", employeeHandler.Deactivate)

	// Customers y membresía
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customersGroup := protected.Group("/customers")
	customersGroup.Post("/", customerHandler.Create)
	customersGroup.Get("/", customerHandler.List)
	customersGroup.Get("/:id", customerHandler.GetByID)
	customersGroup.Put("/:id", customerHandler.Update)
	customersGroup.Put("/:id/tier", adminOnly, customerHandler.UpdateTier)
	customersGroup.Get("/:id/tier-history", customerHandler.History)
	protected.Get("/tiers", customerHandler.Tiers)

	ordersGroup := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.Orders)
	ordersGroup.Post("/", sellers, orderHandler.Create)
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.GetByID)
	ordersGroup.Get("/:id/pdf", orderHandler.PDF)
	ordersGroup.Patch("/:id/status", sellers, orderHandler.UpdateStatus)
	ordersGroup.Post("/:id/cancel", sellers, orderHandler.Cancel)

	purchasesGroup := protected.Group("/purchases")
	purchaseHandler := NewPurchaseHandler(deps.Purchases)
	purchasesGroup.Post("/", stockWriters, purchaseHandler.Create)
	purchasesGroup.Get("/", purchaseHandler.List)
	purchasesGroup.Get("/:id", purchaseHandler.GetByID)
	purchasesGroup.Patch("/:id", stockWriters, purchaseHandler.Update)
	purchasesGroup.Post("/:id/receive", stockWriters, purchaseHandler.Receive)
	purchasesGroup.Post("/:id/cancel", adminOnly, purchaseHandler.Cancel)

	// Inventory ledger
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Post("/movements", stockWriters, inventoryHandler.RegisterMovement)
	invGroup.Post("/adjustments", adminOnly, inventoryHandler.Adjust)

	// Reportes
	dashboardHandler := NewDashboardHandler(deps.Dashboard)
	protected.Get("/reports/dashboard", adminOnly, dashboardHandler.Summary)
}
