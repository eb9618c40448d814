package orders_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	appinventory "github.com/jhoicas/comic-store-api/internal/application/inventory"
	"github.com/jhoicas/comic-store-api/internal/application/orders"
	"github.com/jhoicas/comic-store-api/internal/application/ports"
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/docnumber"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/infrastructure/memory"
)

const actor = "emp-1"

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev ports.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type mapIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *mapIdempotency) Reserve(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.keys[key]; ok {
		return id, false, nil
	}
	m.keys[key] = ""
	return "", true, nil
}

func (m *mapIdempotency) Complete(_ context.Context, key, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = id
	return nil
}

func (m *mapIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type fakeRenderer struct{ got ports.OrderReceipt }

func (f *fakeRenderer) RenderOrderReceipt(_ context.Context, r ports.OrderReceipt) ([]byte, error) {
	f.got = r
	return []byte("%PDF-fake"), nil
}

type fixture struct {
	store    *memory.Store
	wf       *orders.Workflow
	events   *recordingPublisher
	numbers  *docnumber.Generator
	idem     *mapIdempotency
	renderer *fakeRenderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	events := &recordingPublisher{}
	repos := store.Repos()
	ledger := appinventory.NewLedger(store, repos.Movements, events, zerolog.Nop())
	numbers := docnumber.New("PED", 10)
	idem := &mapIdempotency{keys: map[string]string{}}
	renderer := &fakeRenderer{}
	wf := orders.NewWorkflow(store, repos, ledger, numbers, idem, events, renderer, zerolog.Nop())
	return &fixture{store: store, wf: wf, events: events, numbers: numbers, idem: idem, renderer: renderer}
}

func (f *fixture) product(t *testing.T, id string, price int64, stock int) {
	t.Helper()
	require.NoError(t, f.store.Repos().Products.Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Producto " + id, Kind: entity.ProductKindComic,
		PriceSell: decimal.NewFromInt(price), StockActual: stock, StockMinimo: 1, Active: true,
	}))
}

func (f *fixture) customer(t *testing.T, id, tier string) {
	t.Helper()
	require.NoError(t, f.store.Repos().Customers.Create(context.Background(), &entity.Customer{
		ID: id, Name: "Cliente " + id, Email: id + "@example.com", TierID: tier, Active: true,
	}))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Repos().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.StockActual
}

func (f *fixture) movements(t *testing.T, filter entity.MovementFilter) []*entity.InventoryMovement {
	t.Helper()
	list, err := f.store.Repos().Movements.List(context.Background(), filter)
	require.NoError(t, err)
	return list
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func twoLineOrder() dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		CustomerID: "c1",
		Lines: []dto.OrderLineRequest{
			{ProductID: "A", Quantity: 3},
			{ProductID: "B", Quantity: 1},
		},
	}
}

// ─── CreateOrder ────────────────────────────────────────────────────────────

func TestCreateOrder_DosLineasConDescuento(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 10)
	f.product(t, "B", 20, 5)
	f.customer(t, "c1", "oro")

	resp, err := f.wf.CreateOrder(context.Background(), actor, twoLineOrder(), "")
	require.NoError(t, err)

	assert.True(t, resp.Subtotal.Equal(dec("45")), "subtotal: %s", resp.Subtotal)
	assert.True(t, resp.Tax.Equal(dec("7.20")), "iva: %s", resp.Tax)
	assert.True(t, resp.Total.Equal(dec("52.20")), "total: %s", resp.Total)
	assert.Equal(t, string(entity.OrderPendiente), resp.Status)
	assert.True(t, strings.HasPrefix(resp.Number, "PED-"), resp.Number)
	require.Len(t, resp.Lines, 2)

	assert.Equal(t, 7, f.stock(t, "A"))
	assert.Equal(t, 4, f.stock(t, "B"))

	movs := f.movements(t, entity.MovementFilter{DocumentID: resp.ID})
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementSalida, m.Type)
		assert.Equal(t, entity.DocumentPedido, m.DocumentType)
		assert.Equal(t, "Salida por pedido #"+resp.Number, m.Reason)
		assert.Equal(t, m.StockBefore-m.Quantity, m.StockAfter)
	}

	c, _ := f.store.Repos().Customers.GetByID(context.Background(), "c1")
	assert.Equal(t, 3, c.Points)
	assert.NotNil(t, c.LastPurchaseAt)
	assert.Contains(t, f.events.types(), ports.EventOrderCreated)
}

func TestCreateOrder_SinStockNoEscribeNada(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 2)
	f.product(t, "B", 20, 5)
	f.customer(t, "c1", "basico")

	_, err := f.wf.CreateOrder(context.Background(), actor, twoLineOrder(), "")
	require.ErrorIs(t, err, domain.ErrOutOfStock)
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "A", stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)

	assert.Equal(t, 2, f.stock(t, "A"))
	assert.Equal(t, 5, f.stock(t, "B"))
	assert.Empty(t, f.movements(t, entity.MovementFilter{}))
	list, err := f.wf.List(context.Background(), entity.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	c, _ := f.store.Repos().Customers.GetByID(context.Background(), "c1")
	assert.Zero(t, c.Points)
}

func TestCreateOrder_SumaCantidadesDelMismoProducto(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 4)
	f.customer(t, "c1", "basico")

	_, err := f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []dto.OrderLineRequest{{ProductID: "A", Quantity: 3}, {ProductID: "A", Quantity: 2}},
	}, "")
	require.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 4, f.stock(t, "A"))
}

func TestCreateOrder_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 4)
	f.customer(t, "c1", "basico")

	_, err := f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{CustomerID: "c1"}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 0}},
	}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "nadie", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}},
	}, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "Z", Quantity: 1}},
	}, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateOrder_NivelInexistente(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 4)
	f.customer(t, "c1", "vip")

	_, err := f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}},
	}, "")
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	assert.Equal(t, 4, f.stock(t, "A"))
}

func TestCreateOrder_TipoDeMovimientoAusente(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 4)
	f.customer(t, "c1", "basico")
	f.store.RemoveMovementType(entity.MovementSalida)

	_, err := f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}},
	}, "")
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	assert.Equal(t, 4, f.stock(t, "A"))
	list, _ := f.wf.List(context.Background(), entity.OrderFilter{})
	assert.Empty(t, list.Items)
}

func TestCreateOrder_NumeroAgotado(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 4)
	f.customer(t, "c1", "basico")
	day := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	f.numbers.Now = func() time.Time { return day }
	f.numbers.Random = func(int) string { return "AAAAA" }
	require.NoError(t, f.store.Repos().Orders.Create(context.Background(), &entity.Order{
		ID: "existente", Number: docnumber.Format("PED", day, "AAAAA"), Status: entity.OrderPendiente,
	}))

	_, err := f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}},
	}, "")
	assert.ErrorIs(t, err, domain.ErrDocumentNumberExhausted)
	assert.Equal(t, 4, f.stock(t, "A"))
}

func TestCreateOrder_NumeroReintentaTrasColision(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 4)
	f.customer(t, "c1", "basico")
	day := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	suffixes := []string{"AAAAA", "BBBBB"}
	calls := 0
	f.numbers.Now = func() time.Time { return day }
	f.numbers.Random = func(int) string {
		s := suffixes[calls%len(suffixes)]
		calls++
		return s
	}
	require.NoError(t, f.store.Repos().Orders.Create(context.Background(), &entity.Order{
		ID: "existente", Number: docnumber.Format("PED", day, "AAAAA"), Status: entity.OrderPendiente,
	}))

	resp, err := f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "PED-20240315-BBBBB", resp.Number)
}

func TestCreateOrder_Idempotente(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 10)
	f.product(t, "B", 20, 5)
	f.customer(t, "c1", "basico")

	first, err := f.wf.CreateOrder(context.Background(), actor, twoLineOrder(), "clave-1")
	require.NoError(t, err)
	second, err := f.wf.CreateOrder(context.Background(), actor, twoLineOrder(), "clave-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 7, f.stock(t, "A"))
	assert.Len(t, f.movements(t, entity.MovementFilter{}), 2)
}

func TestCreateOrder_ClaveDeIdempotenciaPorEmpleado(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 10)
	f.product(t, "B", 20, 5)
	f.customer(t, "c1", "basico")

	mine, err := f.wf.CreateOrder(context.Background(), actor, twoLineOrder(), "clave-compartida")
	require.NoError(t, err)
	other, err := f.wf.CreateOrder(context.Background(), "emp-2", twoLineOrder(), "clave-compartida")
	require.NoError(t, err)

	assert.NotEqual(t, mine.ID, other.ID, "otro empleado no recibe el pedido ajeno")
	assert.Equal(t, 4, f.stock(t, "A"))

	again, err := f.wf.CreateOrder(context.Background(), "emp-2", twoLineOrder(), "clave-compartida")
	require.NoError(t, err)
	assert.Equal(t, other.ID, again.ID)
}

func TestCreateOrder_IdempotenciaLiberaAlFallar(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 1)
	f.customer(t, "c1", "basico")
	req := dto.CreateOrderRequest{CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 2}}}

	_, err := f.wf.CreateOrder(context.Background(), actor, req, "clave-2")
	require.ErrorIs(t, err, domain.ErrOutOfStock)
	_, reserved, err := f.idem.Reserve(context.Background(), actor+":clave-2")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestCreateOrder_ConcurrenciaNoSobrevende(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 5)
	f.customer(t, "c1", "basico")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
				CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}},
			}, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrOutOfStock) {
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, fail)
	assert.Equal(t, 0, f.stock(t, "A"))
	assert.Len(t, f.movements(t, entity.MovementFilter{Type: entity.MovementSalida}), 5)
}

// ─── CancelOrder / UpdateStatus ─────────────────────────────────────────────

func TestCancelOrder_DevuelveStock(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 10)
	f.product(t, "B", 20, 5)
	f.customer(t, "c1", "basico")
	created, err := f.wf.CreateOrder(context.Background(), actor, twoLineOrder(), "")
	require.NoError(t, err)

	cancelled, err := f.wf.CancelOrder(context.Background(), actor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.OrderCancelado), cancelled.Status)
	assert.Equal(t, 10, f.stock(t, "A"))
	assert.Equal(t, 5, f.stock(t, "B"))

	entradas := f.movements(t, entity.MovementFilter{DocumentID: created.ID, Type: entity.MovementEntrada})
	require.Len(t, entradas, 2)
	for _, m := range entradas {
		assert.Equal(t, "Devolución por cancelación de pedido #"+created.Number, m.Reason)
	}
	assert.Contains(t, f.events.types(), ports.EventOrderCancelled)

	_, err = f.wf.CancelOrder(context.Background(), actor, created.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 10, f.stock(t, "A"))
}

func TestCancelOrder_Entregado(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 10)
	f.customer(t, "c1", "basico")
	created, err := f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 2}},
	}, "")
	require.NoError(t, err)
	_, err = f.wf.UpdateStatus(context.Background(), actor, created.ID, dto.UpdateOrderStatusRequest{Status: "entregado"})
	require.NoError(t, err)

	_, err = f.wf.CancelOrder(context.Background(), actor, created.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 8, f.stock(t, "A"))
}

func TestCancelOrder_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.wf.CancelOrder(context.Background(), actor, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateStatus_Transiciones(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 10)
	f.customer(t, "c1", "basico")
	created, err := f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 2}},
	}, "")
	require.NoError(t, err)

	notes := "sale con paquetería"
	resp, err := f.wf.UpdateStatus(context.Background(), actor, created.ID, dto.UpdateOrderStatusRequest{Status: "enviado", Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "enviado", resp.Status)
	assert.Equal(t, notes, resp.Notes)
	assert.Contains(t, f.events.types(), ports.EventOrderStatusChanged)

	_, err = f.wf.UpdateStatus(context.Background(), actor, created.ID, dto.UpdateOrderStatusRequest{Status: "procesado"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.wf.UpdateStatus(context.Background(), actor, created.ID, dto.UpdateOrderStatusRequest{Status: "perdido"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	resp, err = f.wf.UpdateStatus(context.Background(), actor, created.ID, dto.UpdateOrderStatusRequest{Status: "cancelado"})
	require.NoError(t, err)
	assert.Equal(t, "cancelado", resp.Status)
	assert.Equal(t, 10, f.stock(t, "A"))
}

// ─── Consultas ──────────────────────────────────────────────────────────────

func TestList_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 10)
	f.customer(t, "c1", "basico")
	req := dto.CreateOrderRequest{CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}}}
	first, err := f.wf.CreateOrder(context.Background(), actor, req, "")
	require.NoError(t, err)
	_, err = f.wf.CreateOrder(context.Background(), actor, req, "")
	require.NoError(t, err)
	_, err = f.wf.CancelOrder(context.Background(), actor, first.ID)
	require.NoError(t, err)

	list, err := f.wf.List(context.Background(), entity.OrderFilter{Status: entity.OrderCancelado})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, first.ID, list.Items[0].ID)
	assert.Empty(t, list.Items[0].Lines)

	_, err = f.wf.List(context.Background(), entity.OrderFilter{Status: "raro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReceipt_UsaNombresDeProducto(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, 10)
	f.customer(t, "c1", "basico")
	created, err := f.wf.CreateOrder(context.Background(), actor, dto.CreateOrderRequest{
		CustomerID: "c1", Lines: []dto.OrderLineRequest{{ProductID: "A", Quantity: 1}},
	}, "")
	require.NoError(t, err)

	pdf, name, err := f.wf.Receipt(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "pedido_"+created.Number+".pdf", name)
	assert.Equal(t, "Producto A", f.renderer.got.ProductNames["A"])
	require.NotNil(t, f.renderer.got.Customer)
	assert.Equal(t, "c1", f.renderer.got.Customer.ID)
}
