package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comic-store-api/internal/application/analytics"
	"github.com/jhoicas/comic-store-api/internal/application/auth"
	"github.com/jhoicas/comic-store-api/internal/application/customers"
	"github.com/jhoicas/comic-store-api/internal/application/dto"
	appinventory "github.com/jhoicas/comic-store-api/internal/application/inventory"
	"github.com/jhoicas/comic-store-api/internal/application/orders"
	"github.com/jhoicas/comic-store-api/internal/application/ports"
	"github.com/jhoicas/comic-store-api/internal/application/purchases"
	"github.com/jhoicas/comic-store-api/internal/application/usecase"
	"github.com/jhoicas/comic-store-api/internal/domain/docnumber"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/comic-store-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/comic-store-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type stubRenderer struct{}

func (stubRenderer) RenderOrderReceipt(_ context.Context, r ports.OrderReceipt) ([]byte, error) {
	return []byte("%PDF-1.4 " + r.Order.Number), nil
}

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

// newAPI monta la API completa sobre el almacén en memoria.
func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	nop := zerolog.Nop()

	ledger := appinventory.NewLedger(store, repos.Movements, nil, nop)
	deps := apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(store.Users(), auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
		}),
		UserUC:        usecase.NewUserUseCase(store.Users()),
		ProductUC:     usecase.NewProductUseCase(store, repos.Products, ledger),
		SupplierUC:    usecase.NewSupplierUseCase(repos.Suppliers),
		CategoryUC:    usecase.NewCategoryUseCase(repos.Categories),
		Ledger:        ledger,
		Replenishment: appinventory.NewReplenishmentUseCase(repos.Products),
		CustomerUC:    customers.NewUseCase(store, repos.Customers, repos.Membership, nil, nop, "basico"),
		Orders: orders.NewWorkflow(store, repos, ledger, docnumber.New("PED", 10),
			memory.NewIdempotencyStore(0), nil, stubRenderer{}, nop),
		Purchases: purchases.NewWorkflow(store, repos, ledger, docnumber.New("COMP", 10), nil, nop),
		Dashboard: analytics.NewDashboardUseCase(store.SalesReport()),
		JWTSecret: testJWTSecret,
	}

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	app.Use(apphttp.RequestLogger(nop))
	apphttp.Router(app, deps)
	return &apiFixture{app: app, store: store}
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, "emp-"+role, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *apiFixture) call(t *testing.T, method, path, authHeader string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (f *apiFixture) product(t *testing.T, id string, price int64, stock, minimum int) {
	t.Helper()
	require.NoError(t, f.store.Repos().Products.Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Producto " + id, Kind: entity.ProductKindComic,
		PriceSell: decimal.NewFromInt(price), PriceBuy: decimal.NewFromInt(price / 2),
		StockActual: stock, StockMinimo: minimum, Active: true,
	}))
}

func (f *apiFixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Repos().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.StockActual
}

func (f *apiFixture) customer(t *testing.T, email string) string {
	t.Helper()
	resp, body := f.call(t, http.MethodPost, "/api/customers", bearer(t, entity.RoleVendedor),
		dto.CreateCustomerRequest{Name: "Ana", Email: email})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var c dto.CustomerResponse
	require.NoError(t, json.Unmarshal(body, &c))
	return c.ID
}

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

// register da de alta un empleado como admin.
func (f *apiFixture) register(t *testing.T, email, password, role string) dto.UserResponse {
	t.Helper()
	resp, body := f.call(t, http.MethodPost, "/api/auth/register", bearer(t, entity.RoleAdmin),
		dto.RegisterRequest{Email: email, Password: password, Role: role})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var u dto.UserResponse
	require.NoError(t, json.Unmarshal(body, &u))
	return u
}

func (f *apiFixture) login(t *testing.T, email, password string) (int, string) {
	t.Helper()
	resp, body := f.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: password})
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, ""
	}
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	return resp.StatusCode, "Bearer " + login.Token
}

func TestAuth_RegistroSoloAdmin(t *testing.T) {
	f := newAPI(t)
	req := dto.RegisterRequest{Email: "Admin@Comics.test", Password: "secreto123", Role: entity.RoleAdmin}

	resp, body := f.call(t, http.MethodPost, "/api/auth/register", "", req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "alta anónima de un admin")
	assert.Equal(t, "MISSING_TOKEN", decodeError(t, body).Code)

	resp, body = f.call(t, http.MethodPost, "/api/auth/register", bearer(t, entity.RoleVendedor), req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, body).Code)

	status, _ := f.login(t, "admin@comics.test", "secreto123")
	assert.Equal(t, http.StatusUnauthorized, status, "los intentos rechazados no crean la cuenta")

	resp, body = f.call(t, http.MethodPost, "/api/auth/register", bearer(t, entity.RoleAdmin), req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodPost, "/api/auth/register", bearer(t, entity.RoleAdmin),
		dto.RegisterRequest{Email: "admin@comics.test", Password: "secreto123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", decodeError(t, body).Code)
}

func TestAuth_LoginYPerfil(t *testing.T) {
	f := newAPI(t)
	f.register(t, "Bodega@Comics.test", "secreto123", entity.RoleBodeguero)

	resp, body := f.call(t, http.MethodPost, "/api/auth/login", "",
		dto.LoginRequest{Email: "bodega@comics.test", Password: "secreto123"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	require.NotEmpty(t, login.Token)
	assert.Equal(t, entity.RoleBodeguero, login.User.Role)

	resp, body = f.call(t, http.MethodGet, "/api/auth/me", "Bearer "+login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var me dto.UserResponse
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "bodega@comics.test", me.Email)
}

func TestAuth_PasswordIncorrectoRetorna401(t *testing.T) {
	f := newAPI(t)
	f.register(t, "v@comics.test", "secreto123", "")

	resp, body := f.call(t, http.MethodPost, "/api/auth/login", "",
		dto.LoginRequest{Email: "v@comics.test", Password: "otro-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, body).Code)
}

func TestAuth_PasswordCortoRetorna400(t *testing.T) {
	f := newAPI(t)
	resp, body := f.call(t, http.MethodPost, "/api/auth/register", bearer(t, entity.RoleAdmin),
		dto.RegisterRequest{Email: "x@comics.test", Password: "corto"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
}

func TestAuth_CambioDePassword(t *testing.T) {
	f := newAPI(t)
	f.register(t, "v@comics.test", "secreto123", entity.RoleVendedor)
	_, token := f.login(t, "v@comics.test", "secreto123")
	require.NotEmpty(t, token)

	resp, body := f.call(t, http.MethodPost, "/api/auth/change-password", "",
		dto.ChangePasswordRequest{CurrentPassword: "secreto123", NewPassword: "nuevo-secreto"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodPost, "/api/auth/change-password", token,
		dto.ChangePasswordRequest{CurrentPassword: "equivocado", NewPassword: "nuevo-secreto"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodPost, "/api/auth/change-password", token,
		dto.ChangePasswordRequest{CurrentPassword: "secreto123", NewPassword: "corto"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodPost, "/api/auth/change-password", token,
		dto.ChangePasswordRequest{CurrentPassword: "secreto123", NewPassword: "nuevo-secreto"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	status, _ := f.login(t, "v@comics.test", "secreto123")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = f.login(t, "v@comics.test", "nuevo-secreto")
	assert.Equal(t, http.StatusOK, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Empleados
// ──────────────────────────────────────────────────────────────────────────────

func TestEmpleados_AdminEditaYDaDeBaja(t *testing.T) {
	f := newAPI(t)
	v := f.register(t, "v@comics.test", "secreto123", entity.RoleVendedor)
	admin := bearer(t, entity.RoleAdmin)

	resp, _ := f.call(t, http.MethodGet, "/api/employees", bearer(t, entity.RoleVendedor), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.call(t, http.MethodGet, "/api/employees", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list []dto.UserResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, v.ID, list[0].ID)

	role := entity.RoleBodeguero
	resp, body = f.call(t, http.MethodPut, "/api/employees/"+v.ID, admin, dto.UpdateUserRequest{Role: &role})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated dto.UserResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, entity.RoleBodeguero, updated.Role)

	resp, body = f.call(t, http.MethodDelete, "/api/employees/"+v.ID, admin, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "v@comics.test", Password: "secreto123"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, body).Code)

	resp, _ = f.call(t, http.MethodDelete, "/api/employees/no-existe", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRutasProtegidas_SinTokenRetorna401(t *testing.T) {
	f := newAPI(t)
	resp, body := f.call(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", decodeError(t, body).Code)

	resp, body = f.call(t, http.MethodGet, "/api/products", "Basic abc", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, body).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Productos e inventario
// ──────────────────────────────────────────────────────────────────────────────

func TestProductos_VendedorNoPuedeCrear(t *testing.T) {
	f := newAPI(t)
	resp, body := f.call(t, http.MethodPost, "/api/products", bearer(t, entity.RoleVendedor),
		dto.CreateProductRequest{SKU: "BAT-1", Name: "Batman #1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, body).Code)
}

func TestProductos_CrearConStockInicialRegistraEntrada(t *testing.T) {
	f := newAPI(t)
	minimo := 5
	resp, body := f.call(t, http.MethodPost, "/api/products", bearer(t, entity.RoleBodeguero),
		dto.CreateProductRequest{
			SKU: "BAT-1", Name: "Batman #1", Kind: "comic",
			PriceBuy: decimal.NewFromInt(5), PriceSell: decimal.NewFromInt(10),
			StockMinimo: &minimo, InitialStock: 3,
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p dto.ProductResponse
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, 3, p.StockActual)

	resp, body = f.call(t, http.MethodGet, "/api/inventory/movements?product_id="+p.ID+"&type=entrada", bearer(t, entity.RoleVendedor), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var movements dto.MovementListResponse
	require.NoError(t, json.Unmarshal(body, &movements))
	require.Len(t, movements.Items, 1)
	assert.Equal(t, 0, movements.Items[0].StockBefore)
	assert.Equal(t, 3, movements.Items[0].StockAfter)

	// stock 3 < mínimo 5
	resp, body = f.call(t, http.MethodGet, "/api/products/low-stock", bearer(t, entity.RoleVendedor), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var low []dto.LowStockDTO
	require.NoError(t, json.Unmarshal(body, &low))
	require.Len(t, low, 1)
	assert.Equal(t, 2, low[0].Deficit)

	resp, _ = f.call(t, http.MethodPost, "/api/products", bearer(t, entity.RoleAdmin),
		dto.CreateProductRequest{SKU: "BAT-1", Name: "Otro"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProductos_NoEncontrado(t *testing.T) {
	f := newAPI(t)
	resp, body := f.call(t, http.MethodGet, "/api/products/no-existe", bearer(t, entity.RoleVendedor), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, body).Code)
}

func TestInventario_SalidaMayorAlStockRetorna409(t *testing.T) {
	f := newAPI(t)
	f.product(t, "A", 10, 2, 1)

	resp, body := f.call(t, http.MethodPost, "/api/inventory/movements", bearer(t, entity.RoleBodeguero),
		dto.RegisterMovementRequest{ProductID: "A", Type: "salida", Quantity: 5, Reason: "merma"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decodeError(t, body).Code)
	assert.Equal(t, 2, f.stock(t, "A"))
}

func TestInventario_AjusteSoloAdmin(t *testing.T) {
	f := newAPI(t)
	f.product(t, "A", 10, 2, 1)

	in := dto.AdjustmentRequest{ProductID: "A", NewStock: 7, Reason: "conteo físico"}
	resp, _ := f.call(t, http.MethodPost, "/api/inventory/adjustments", bearer(t, entity.RoleBodeguero), in)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.call(t, http.MethodPost, "/api/inventory/adjustments", bearer(t, entity.RoleAdmin), in)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, 7, f.stock(t, "A"))
}

func TestInventario_FechaInvalidaRetorna400(t *testing.T) {
	f := newAPI(t)
	resp, body := f.call(t, http.MethodGet, "/api/inventory/movements?from=ayer", bearer(t, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pedidos
// ──────────────────────────────────────────────────────────────────────────────

func TestPedidos_CrearDescuentaStockYEsIdempotente(t *testing.T) {
	f := newAPI(t)
	f.product(t, "A", 10, 5, 1)
	customerID := f.customer(t, "ana@example.com")

	in := dto.CreateOrderRequest{CustomerID: customerID, Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 2}}}
	resp, body := f.call(t, http.MethodPost, "/api/orders", bearer(t, entity.RoleVendedor), in,
		apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var first dto.OrderResponse
	require.NoError(t, json.Unmarshal(body, &first))
	assert.True(t, strings.HasPrefix(first.Number, "PED-"), first.Number)
	assert.Equal(t, string(entity.OrderPendiente), first.Status)
	require.Len(t, first.Lines, 1)
	assert.Equal(t, 3, f.stock(t, "A"))

	resp, body = f.call(t, http.MethodPost, "/api/orders", bearer(t, entity.RoleVendedor), in,
		apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var second dto.OrderResponse
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, f.stock(t, "A"), "la repetición no descuenta de nuevo")
}

func TestPedidos_SinStockRetornaOutOfStock(t *testing.T) {
	f := newAPI(t)
	f.product(t, "A", 10, 1, 1)
	customerID := f.customer(t, "ana@example.com")

	resp, body := f.call(t, http.MethodPost, "/api/orders", bearer(t, entity.RoleVendedor),
		dto.CreateOrderRequest{CustomerID: customerID, Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 4}}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "OUT_OF_STOCK", decodeError(t, body).Code)
	assert.Equal(t, 1, f.stock(t, "A"))
}

func TestPedidos_BodegueroNoPuedeVender(t *testing.T) {
	f := newAPI(t)
	resp, _ := f.call(t, http.MethodPost, "/api/orders", bearer(t, entity.RoleBodeguero),
		dto.CreateOrderRequest{CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPedidos_CancelarDevuelveStockYNoSeRepite(t *testing.T) {
	f := newAPI(t)
	f.product(t, "A", 10, 5, 1)
	customerID := f.customer(t, "ana@example.com")

	_, body := f.call(t, http.MethodPost, "/api/orders", bearer(t, entity.RoleVendedor),
		dto.CreateOrderRequest{CustomerID: customerID, Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 2}}})
	var order dto.OrderResponse
	require.NoError(t, json.Unmarshal(body, &order))

	resp, body := f.call(t, http.MethodPost, "/api/orders/"+order.ID+"/cancel", bearer(t, entity.RoleVendedor), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 5, f.stock(t, "A"))

	resp, body = f.call(t, http.MethodPost, "/api/orders/"+order.ID+"/cancel", bearer(t, entity.RoleVendedor), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, body).Code)
	assert.Equal(t, 5, f.stock(t, "A"))
}

func TestPedidos_CambioDeEstadoYListado(t *testing.T) {
	f := newAPI(t)
	f.product(t, "A", 10, 5, 1)
	customerID := f.customer(t, "ana@example.com")

	_, body := f.call(t, http.MethodPost, "/api/orders", bearer(t, entity.RoleVendedor),
		dto.CreateOrderRequest{CustomerID: customerID, Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}}})
	var order dto.OrderResponse
	require.NoError(t, json.Unmarshal(body, &order))

	resp, body := f.call(t, http.MethodPatch, "/api/orders/"+order.ID+"/status", bearer(t, entity.RoleAdmin),
		dto.UpdateOrderStatusRequest{Status: "enviado"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodGet, "/api/orders?status=enviado", bearer(t, entity.RoleBodeguero), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list dto.OrderListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, order.ID, list.Items[0].ID)

	resp, body = f.call(t, http.MethodGet, "/api/orders?status=perdido", bearer(t, entity.RoleBodeguero), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
}

func TestPedidos_PDF(t *testing.T) {
	f := newAPI(t)
	f.product(t, "A", 10, 5, 1)
	customerID := f.customer(t, "ana@example.com")
	_, body := f.call(t, http.MethodPost, "/api/orders", bearer(t, entity.RoleVendedor),
		dto.CreateOrderRequest{CustomerID: customerID, Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}}})
	var order dto.OrderResponse
	require.NoError(t, json.Unmarshal(body, &order))

	resp, body := f.call(t, http.MethodGet, "/api/orders/"+order.ID+"/pdf", bearer(t, entity.RoleVendedor), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "pedido_"+order.Number+".pdf")
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Compras
// ──────────────────────────────────────────────────────────────────────────────

func TestCompras_CrearYRecibirCompleta(t *testing.T) {
	f := newAPI(t)
	f.product(t, "A", 10, 0, 2)

	resp, body := f.call(t, http.MethodPost, "/api/suppliers", bearer(t, entity.RoleBodeguero),
		dto.CreateSupplierRequest{Name: "Distribuidora Norte"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var supplier dto.SupplierResponse
	require.NoError(t, json.Unmarshal(body, &supplier))

	resp, body = f.call(t, http.MethodPost, "/api/purchases", bearer(t, entity.RoleBodeguero),
		dto.CreatePurchaseRequest{SupplierID: supplier.ID, Lines: []dto.PurchaseLineRequest{
			{ProductID: "A", Quantity: 4, UnitPrice: decimal.NewFromInt(5)},
		}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var purchase dto.PurchaseResponse
	require.NoError(t, json.Unmarshal(body, &purchase))
	assert.True(t, strings.HasPrefix(purchase.Number, "COMP-"), purchase.Number)
	require.Len(t, purchase.Lines, 1)

	resp, body = f.call(t, http.MethodPost, "/api/purchases/"+purchase.ID+"/receive", bearer(t, entity.RoleBodeguero),
		dto.ReceivePurchaseRequest{Lines: []dto.ReceiptLineRequest{{LineID: purchase.Lines[0].ID, Quantity: 4}}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var received dto.PurchaseResponse
	require.NoError(t, json.Unmarshal(body, &received))
	assert.Equal(t, string(entity.PurchaseEntregado), received.Status)
	assert.Equal(t, 4, f.stock(t, "A"))

	// Compra entregada: cancelar ya no es posible.
	resp, _ = f.call(t, http.MethodPost, "/api/purchases/"+purchase.ID+"/cancel", bearer(t, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProveedores_EditarYBajaBloqueaCompras(t *testing.T) {
	f := newAPI(t)
	f.product(t, "A", 10, 0, 2)
	bodega := bearer(t, entity.RoleBodeguero)

	resp, body := f.call(t, http.MethodPost, "/api/suppliers", bodega, dto.CreateSupplierRequest{Name: "Panini"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var supplier dto.SupplierResponse
	require.NoError(t, json.Unmarshal(body, &supplier))

	phone := "555-0101"
	resp, _ = f.call(t, http.MethodPut, "/api/suppliers/"+supplier.ID, bearer(t, entity.RoleVendedor), dto.UpdateSupplierRequest{Phone: &phone})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = f.call(t, http.MethodPut, "/api/suppliers/"+supplier.ID, bodega, dto.UpdateSupplierRequest{Phone: &phone})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated dto.SupplierResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "555-0101", updated.Phone)
	assert.Equal(t, "Panini", updated.Name)

	resp, body = f.call(t, http.MethodDelete, "/api/suppliers/"+supplier.ID, bodega, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodGet, "/api/suppliers/"+supplier.ID, bodega, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.False(t, updated.Active)

	resp, body = f.call(t, http.MethodPost, "/api/purchases", bodega,
		dto.CreatePurchaseRequest{SupplierID: supplier.ID, Lines: []dto.PurchaseLineRequest{
			{ProductID: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, string(body))

	resp, _ = f.call(t, http.MethodDelete, "/api/suppliers/no-existe", bodega, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Categorías
// ──────────────────────────────────────────────────────────────────────────────

func TestCategorias_AltaListadoYValidacionEnProductos(t *testing.T) {
	f := newAPI(t)
	bodega := bearer(t, entity.RoleBodeguero)

	resp, _ := f.call(t, http.MethodPost, "/api/categories", bearer(t, entity.RoleVendedor), dto.CreateCategoryRequest{Name: "Manga"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.call(t, http.MethodPost, "/api/categories", bodega, dto.CreateCategoryRequest{Name: "Manga"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var manga dto.CategoryResponse
	require.NoError(t, json.Unmarshal(body, &manga))

	resp, body = f.call(t, http.MethodPost, "/api/categories", bodega, dto.CreateCategoryRequest{Name: "MANGA"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", decodeError(t, body).Code)

	resp, body = f.call(t, http.MethodGet, "/api/categories", bearer(t, entity.RoleVendedor), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list []dto.CategoryResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, manga.ID, list[0].ID)

	resp, body = f.call(t, http.MethodPost, "/api/products", bodega,
		dto.CreateProductRequest{SKU: "OP-1", Name: "One Piece 1", CategoryID: "fantasma"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)

	resp, body = f.call(t, http.MethodPost, "/api/products", bodega,
		dto.CreateProductRequest{SKU: "OP-1", Name: "One Piece 1", CategoryID: manga.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodGet, "/api/products?category_id="+manga.ID, bodega, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var products dto.ProductListResponse
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products.Items, 1)
	assert.Equal(t, "OP-1", products.Items[0].SKU)
}

// ──────────────────────────────────────────────────────────────────────────────
// Clientes y membresía
// ──────────────────────────────────────────────────────────────────────────────

func TestClientes_CambioDeNivelSoloAdminYQuedaEnHistorial(t *testing.T) {
	f := newAPI(t)
	customerID := f.customer(t, "ana@example.com")

	in := dto.UpdateTierRequest{TierID: "oro", Reason: "cliente frecuente"}
	resp, _ := f.call(t, http.MethodPut, "/api/customers/"+customerID+"/tier", bearer(t, entity.RoleVendedor), in)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.call(t, http.MethodPut, "/api/customers/"+customerID+"/tier", bearer(t, entity.RoleAdmin), in)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var c dto.CustomerResponse
	require.NoError(t, json.Unmarshal(body, &c))
	assert.Equal(t, "oro", c.TierID)

	resp, body = f.call(t, http.MethodGet, "/api/customers/"+customerID+"/tier-history", bearer(t, entity.RoleVendedor), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var history []dto.TierHistoryResponse
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "basico", history[0].TierBefore)
	assert.Equal(t, "oro", history[0].TierAfter)
	assert.Equal(t, "emp-admin", history[0].ChangedBy)

	resp, body = f.call(t, http.MethodGet, "/api/tiers", bearer(t, entity.RoleVendedor), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var tiers []dto.TierResponse
	require.NoError(t, json.Unmarshal(body, &tiers))
	assert.Len(t, tiers, 4)
}

func TestClientes_EmailDuplicadoRetorna409(t *testing.T) {
	f := newAPI(t)
	f.customer(t, "ana@example.com")
	resp, body := f.call(t, http.MethodPost, "/api/customers", bearer(t, entity.RoleVendedor),
		dto.CreateCustomerRequest{Name: "Ana B", Email: "ANA@example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", decodeError(t, body).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reportes
// ──────────────────────────────────────────────────────────────────────────────

func TestReportes_TableroSoloAdminConVentasDelDia(t *testing.T) {
	f := newAPI(t)
	f.product(t, "A", 10, 5, 1)
	customerID := f.customer(t, "ana@example.com")
	resp, body := f.call(t, http.MethodPost, "/api/orders", bearer(t, entity.RoleVendedor),
		dto.CreateOrderRequest{CustomerID: customerID, Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 2}}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = f.call(t, http.MethodGet, "/api/reports/dashboard", bearer(t, entity.RoleVendedor), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = f.call(t, http.MethodGet, "/api/reports/dashboard", bearer(t, entity.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var s dto.DashboardSummaryDTO
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, 1, s.Today.Orders)
	assert.True(t, s.Today.Revenue.Equal(decimal.NewFromInt(20)), "revenue: %s", s.Today.Revenue)
	assert.True(t, s.Today.Cost.Equal(decimal.NewFromInt(10)), "cost: %s", s.Today.Cost)
	require.Len(t, s.TopProducts, 1)
	assert.Equal(t, "SKU-A", s.TopProducts[0].SKU)

	resp, body = f.call(t, http.MethodGet, "/api/reports/dashboard?from=ayer", bearer(t, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
}
