// Package orders implementa el flujo de pedidos de venta: creación con descuento de
// membresía y salida de inventario, cambios de estado y cancelación con devolución de stock.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	appinventory "github.com/jhoicas/comic-store-api/internal/application/inventory"
	"github.com/jhoicas/comic-store-api/internal/application/ports"
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/docnumber"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/inventory"
	"github.com/jhoicas/comic-store-api/internal/domain/pricing"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
	"github.com/jhoicas/comic-store-api/pkg/metrics"
	"github.com/jhoicas/comic-store-api/pkg/tracing"
)

// Workflow orquesta los pedidos. Cada operación pública es una sola transacción.
type Workflow struct {
	txRunner    repository.TxRunner
	repos       repository.Repos // lecturas fuera de transacción
	ledger      *appinventory.Ledger
	numbers     *docnumber.Generator
	idempotency ports.IdempotencyStore
	events      ports.EventPublisher
	receipts    ports.ReceiptRenderer
	log         zerolog.Logger
	now         func() time.Time
}

// NewWorkflow construye el flujo de pedidos.
func NewWorkflow(
	txRunner repository.TxRunner,
	repos repository.Repos,
	ledger *appinventory.Ledger,
	numbers *docnumber.Generator,
	idempotency ports.IdempotencyStore,
	events ports.EventPublisher,
	receipts ports.ReceiptRenderer,
	log zerolog.Logger,
) *Workflow {
	if idempotency == nil {
		idempotency = ports.NoopIdempotencyStore{}
	}
	if events == nil {
		events = ports.NoopPublisher{}
	}
	return &Workflow{
		txRunner:    txRunner,
		repos:       repos,
		ledger:      ledger,
		numbers:     numbers,
		idempotency: idempotency,
		events:      events,
		receipts:    receipts,
		log:         log,
		now:         time.Now,
	}
}

// CreateOrder crea el pedido, descuenta stock y acumula puntos del cliente en una transacción.
// Con idempotencyKey, una segunda llamada del mismo empleado con la misma clave devuelve el pedido ya creado.
func (w *Workflow) CreateOrder(ctx context.Context, actorID string, in dto.CreateOrderRequest, idempotencyKey string) (*dto.OrderResponse, error) {
	ctx, span := tracing.Start(ctx, "orders.CreateOrder")
	defer span.End()
	start := w.now()

	if err := validateCreate(actorID, in); err != nil {
		metrics.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	// La clave se acota al empleado: dos empleados con la misma clave no comparten pedido
	key := strings.TrimSpace(idempotencyKey)
	if key != "" {
		key = actorID + ":" + key
		existingID, reserved, err := w.idempotency.Reserve(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("orders: reservar clave de idempotencia: %w", err)
		}
		if !reserved {
			if existingID == "" {
				return nil, fmt.Errorf("%w: ya hay un pedido en curso con esta clave", domain.ErrConflict)
			}
			return w.Get(ctx, existingID)
		}
	}

	var (
		order    *entity.Order
		products []*entity.Product
		err      error
	)
	for attempt := 1; ; attempt++ {
		order, products, err = w.createOnce(ctx, actorID, in)
		if !errors.Is(err, domain.ErrDocumentNumberTaken) {
			break
		}
		metrics.DocumentNumberRetriesTotal.WithLabelValues(w.numbers.Prefix).Inc()
		if attempt >= w.numbers.MaxAttempts {
			err = domain.ErrDocumentNumberExhausted
			break
		}
	}
	if err != nil {
		if key != "" {
			if relErr := w.idempotency.Release(ctx, key); relErr != nil {
				w.log.Warn().Err(relErr).Str("key", key).Msg("no se pudo liberar la clave de idempotencia")
			}
		}
		metrics.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	if key != "" {
		if cErr := w.idempotency.Complete(ctx, key, order.ID); cErr != nil {
			w.log.Warn().Err(cErr).Str("key", key).Msg("no se pudo guardar la clave de idempotencia")
		}
	}

	metrics.OrdersCreatedTotal.Inc()
	metrics.InventoryMovementsTotal.WithLabelValues(string(entity.MovementSalida)).Add(float64(len(order.Lines)))
	metrics.WorkflowLatency.WithLabelValues("create_order").Observe(w.now().Sub(start).Seconds())

	resp := toOrderResponse(order)
	w.publish(ctx, ports.Event{Type: ports.EventOrderCreated, Key: order.ID, OccurredAt: order.CreatedAt, Payload: resp})
	w.ledger.NotifyLowStock(ctx, products...)
	w.log.Info().Str("order", order.Number).Str("customer", order.CustomerID).Str("total", order.Total.StringFixed(2)).Msg("pedido creado")
	return resp, nil
}

// createOnce es un intento completo de creación dentro de una transacción.
func (w *Workflow) createOnce(ctx context.Context, actorID string, in dto.CreateOrderRequest) (*entity.Order, []*entity.Product, error) {
	var (
		order   *entity.Order
		touched []*entity.Product
	)
	err := w.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		customer, err := repos.Customers.GetForUpdate(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil || !customer.Active {
			return domain.ErrNotFound
		}
		tier, err := repos.Membership.GetTier(ctx, customer.TierID)
		if err != nil {
			return err
		}
		if tier == nil {
			return fmt.Errorf("%w: nivel de membresía %q", domain.ErrConfigurationMissing, customer.TierID)
		}

		// Orden de bloqueo fijo por id para evitar interbloqueos entre pedidos concurrentes
		ids := make([]string, 0, len(in.Lines))
		seen := make(map[string]bool, len(in.Lines))
		for _, l := range in.Lines {
			if !seen[l.ProductID] {
				seen[l.ProductID] = true
				ids = append(ids, l.ProductID)
			}
		}
		sort.Strings(ids)
		locked := make(map[string]*entity.Product, len(ids))
		snapshot := make(map[string]int, len(ids))
		for _, id := range ids {
			p, err := repos.Products.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if p == nil || !p.Active {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
			}
			locked[id] = p
			snapshot[id] = p.StockActual
		}

		requests := make([]inventory.StockRequest, 0, len(in.Lines))
		priceLines := make([]pricing.Line, 0, len(in.Lines))
		for _, l := range in.Lines {
			requests = append(requests, inventory.StockRequest{ProductID: l.ProductID, Quantity: l.Quantity})
			priceLines = append(priceLines, pricing.Line{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: locked[l.ProductID].PriceSell})
		}
		if err := inventory.CheckAvailability(snapshot, requests); err != nil {
			return err
		}
		quote := pricing.PriceOrder(tier.DiscountPct, priceLines)

		number, err := w.numbers.Next(ctx, repos.Orders.NumberExists)
		if err != nil {
			return err
		}
		now := w.now()
		order = &entity.Order{
			ID:         uuid.New().String(),
			Number:     number,
			CustomerID: customer.ID,
			EmployeeID: actorID,
			Status:     entity.OrderPendiente,
			Subtotal:   quote.Subtotal,
			Discount:   quote.Discount,
			Tax:        quote.Tax,
			Total:      quote.Total,
			Notes:      strings.TrimSpace(in.Notes),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		for _, pl := range quote.Lines {
			order.Lines = append(order.Lines, entity.OrderLine{
				ID:           uuid.New().String(),
				OrderID:      order.ID,
				ProductID:    pl.ProductID,
				Quantity:     pl.Quantity,
				UnitPrice:    pl.UnitPrice,
				UnitDiscount: pl.UnitDiscount,
				Subtotal:     pl.Subtotal,
			})
		}
		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}

		reason := "Salida por pedido #" + order.Number
		for _, line := range order.Lines {
			_, product, err := w.ledger.ApplyInTx(ctx, repos, appinventory.MovementInput{
				ProductID:    line.ProductID,
				Type:         entity.MovementSalida,
				Quantity:     line.Quantity,
				ActorID:      actorID,
				Reason:       reason,
				DocumentID:   order.ID,
				DocumentType: entity.DocumentPedido,
			})
			if err != nil {
				return err
			}
			locked[line.ProductID] = product
		}
		for _, id := range ids {
			touched = append(touched, locked[id])
		}

		return repos.Customers.RecordPurchase(ctx, customer.ID, tier.PointsPerPurchase, now)
	})
	if err != nil {
		return nil, nil, err
	}
	return order, touched, nil
}

// CancelOrder devuelve al inventario cada línea y deja el pedido en cancelado.
func (w *Workflow) CancelOrder(ctx context.Context, actorID, orderID string) (*dto.OrderResponse, error) {
	ctx, span := tracing.Start(ctx, "orders.CancelOrder")
	defer span.End()
	if actorID == "" || orderID == "" {
		return nil, domain.ErrInvalidInput
	}

	var order *entity.Order
	err := w.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		order, err = w.cancelInTx(ctx, repos, actorID, orderID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.OrdersCancelledTotal.Inc()
	metrics.InventoryMovementsTotal.WithLabelValues(string(entity.MovementEntrada)).Add(float64(len(order.Lines)))

	resp := toOrderResponse(order)
	w.publish(ctx, ports.Event{Type: ports.EventOrderCancelled, Key: order.ID, OccurredAt: order.UpdatedAt, Payload: resp})
	w.log.Info().Str("order", order.Number).Str("actor", actorID).Msg("pedido cancelado")
	return resp, nil
}

func (w *Workflow) cancelInTx(ctx context.Context, repos repository.Repos, actorID, orderID string, notes *string) (*entity.Order, error) {
	order, err := repos.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if !order.Status.CanTransitionTo(entity.OrderCancelado) {
		return nil, fmt.Errorf("%w: el pedido está %s", domain.ErrInvalidTransition, order.Status)
	}

	lines := make([]entity.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	reason := "Devolución por cancelación de pedido #" + order.Number
	for _, line := range lines {
		if _, _, err := w.ledger.ApplyInTx(ctx, repos, appinventory.MovementInput{
			ProductID:    line.ProductID,
			Type:         entity.MovementEntrada,
			Quantity:     line.Quantity,
			ActorID:      actorID,
			Reason:       reason,
			DocumentID:   order.ID,
			DocumentType: entity.DocumentPedido,
		}); err != nil {
			return nil, err
		}
	}

	if notes != nil {
		order.Notes = strings.TrimSpace(*notes)
	}
	order.Status = entity.OrderCancelado
	order.UpdatedAt = w.now()
	if err := repos.Orders.UpdateStatus(ctx, order.ID, order.Status, order.Notes, order.UpdatedAt); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus avanza el pedido según la tabla de transiciones. Pasar a cancelado
// equivale a CancelOrder (se devuelve el stock).
func (w *Workflow) UpdateStatus(ctx context.Context, actorID, orderID string, in dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error) {
	ctx, span := tracing.Start(ctx, "orders.UpdateStatus")
	defer span.End()

	target := entity.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !target.Valid() || actorID == "" || orderID == "" {
		return nil, domain.ErrInvalidInput
	}

	var (
		order    *entity.Order
		previous entity.OrderStatus
	)
	err := w.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		current, err := repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		previous = current.Status
		if target == entity.OrderCancelado {
			order, err = w.cancelInTx(ctx, repos, actorID, orderID, in.Notes)
			return err
		}
		if !current.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, target)
		}
		current.Status = target
		if in.Notes != nil {
			current.Notes = strings.TrimSpace(*in.Notes)
		}
		current.UpdatedAt = w.now()
		if err := repos.Orders.UpdateStatus(ctx, current.ID, current.Status, current.Notes, current.UpdatedAt); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toOrderResponse(order)
	if target == entity.OrderCancelado {
		metrics.OrdersCancelledTotal.Inc()
		metrics.InventoryMovementsTotal.WithLabelValues(string(entity.MovementEntrada)).Add(float64(len(order.Lines)))
		w.publish(ctx, ports.Event{Type: ports.EventOrderCancelled, Key: order.ID, OccurredAt: order.UpdatedAt, Payload: resp})
	} else {
		w.publish(ctx, ports.Event{
			Type:       ports.EventOrderStatusChanged,
			Key:        order.ID,
			OccurredAt: order.UpdatedAt,
			Payload:    statusChange{OrderID: order.ID, Number: order.Number, From: string(previous), To: string(order.Status)},
		})
	}
	return resp, nil
}

type statusChange struct {
	OrderID string `json:"order_id"`
	Number  string `json:"number"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Get devuelve un pedido con sus líneas.
func (w *Workflow) Get(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	order, err := w.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return toOrderResponse(order), nil
}

// List lista pedidos, más recientes primero.
func (w *Workflow) List(ctx context.Context, filter entity.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	list, err := w.repos.Orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		resp := toOrderResponse(o)
		resp.Lines = nil
		items = append(items, *resp)
	}
	return &dto.OrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}, nil
}

// Receipt genera el comprobante PDF del pedido.
// Retorna los bytes y el nombre de archivo sugerido.
func (w *Workflow) Receipt(ctx context.Context, orderID string) ([]byte, string, error) {
	if w.receipts == nil {
		return nil, "", fmt.Errorf("%w: generador de comprobantes no configurado", domain.ErrConfigurationMissing)
	}
	order, err := w.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("receipt: obtener pedido: %w", err)
	}
	if order == nil {
		return nil, "", domain.ErrNotFound
	}
	customer, err := w.repos.Customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return nil, "", fmt.Errorf("receipt: obtener cliente: %w", err)
	}
	names := make(map[string]string, len(order.Lines))
	for _, l := range order.Lines {
		name := "Producto " + l.ProductID
		if p, pErr := w.repos.Products.GetByID(ctx, l.ProductID); pErr == nil && p != nil {
			name = p.Name
		}
		names[l.ProductID] = name
	}
	pdf, err := w.receipts.RenderOrderReceipt(ctx, ports.OrderReceipt{Order: order, Customer: customer, ProductNames: names})
	if err != nil {
		return nil, "", fmt.Errorf("receipt: generación fallida: %w", err)
	}
	return pdf, "pedido_" + order.Number + ".pdf", nil
}

func (w *Workflow) publish(ctx context.Context, ev ports.Event) {
	if err := w.events.Publish(ctx, ev); err != nil {
		w.log.Warn().Err(err).Str("type", ev.Type).Str("key", ev.Key).Msg("no se pudo publicar evento")
	}
}

func validateCreate(actorID string, in dto.CreateOrderRequest) error {
	if actorID == "" || in.CustomerID == "" || len(in.Lines) == 0 {
		return domain.ErrInvalidInput
	}
	for _, l := range in.Lines {
		if l.ProductID == "" {
			return domain.ErrInvalidInput
		}
		if l.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
	}
	return nil
}

// failureReason etiqueta acotada para la métrica de pedidos fallidos.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrOutOfStock), errors.Is(err, domain.ErrInsufficientStock):
		return "out_of_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidQuantity):
		return "validation"
	case errors.Is(err, domain.ErrDocumentNumberExhausted):
		return "document_number"
	case errors.Is(err, domain.ErrConfigurationMissing):
		return "configuration"
	default:
		return "internal"
	}
}

func toOrderResponse(o *entity.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:         o.ID,
		Number:     o.Number,
		CustomerID: o.CustomerID,
		EmployeeID: o.EmployeeID,
		Status:     string(o.Status),
		Subtotal:   o.Subtotal,
		Discount:   o.Discount,
		Tax:        o.Tax,
		Total:      o.Total,
		Notes:      o.Notes,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, dto.OrderLineResponse{
			ID:           l.ID,
			ProductID:    l.ProductID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			UnitDiscount: l.UnitDiscount,
			Subtotal:     l.Subtotal,
		})
	}
	return resp
}
