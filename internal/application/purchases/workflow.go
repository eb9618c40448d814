// Package purchases implementa las órdenes de compra a proveedores y su recepción
// parcial o total con entradas al inventario.
package purchases

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
	"github.com/jhoicas/comic-store-api/internal/domain/pricing"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
	"github.com/jhoicas/comic-store-api/pkg/metrics"
	"github.com/jhoicas/comic-store-api/pkg/tracing"
)

// Workflow orquesta las compras.
type Workflow struct {
	txRunner repository.TxRunner
	repos    repository.Repos
	ledger   *appinventory.Ledger
	numbers  *docnumber.Generator
	events   ports.EventPublisher
	log      zerolog.Logger
	now      func() time.Time
}

// NewWorkflow construye el flujo de compras.
func NewWorkflow(
	txRunner repository.TxRunner,
	repos repository.Repos,
	ledger *appinventory.Ledger,
	numbers *docnumber.Generator,
	events ports.EventPublisher,
	log zerolog.Logger,
) *Workflow {
	if events == nil {
		events = ports.NoopPublisher{}
	}
	return &Workflow{
		txRunner: txRunner,
		repos:    repos,
		ledger:   ledger,
		numbers:  numbers,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// CreatePurchase registra la orden de compra en estado pendiente. No mueve inventario.
func (w *Workflow) CreatePurchase(ctx context.Context, actorID string, in dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	ctx, span := tracing.Start(ctx, "purchases.CreatePurchase")
	defer span.End()

	if actorID == "" || in.SupplierID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, l := range in.Lines {
		if l.ProductID == "" || l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
	}

	var (
		purchase *entity.Purchase
		err      error
	)
	for attempt := 1; ; attempt++ {
		purchase, err = w.createOnce(ctx, actorID, in)
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
		return nil, err
	}

	metrics.PurchasesCreatedTotal.Inc()
	resp := toPurchaseResponse(purchase)
	w.publish(ctx, ports.Event{Type: ports.EventPurchaseCreated, Key: purchase.ID, OccurredAt: purchase.CreatedAt, Payload: resp})
	w.log.Info().Str("purchase", purchase.Number).Str("supplier", purchase.SupplierID).Msg("compra creada")
	return resp, nil
}

func (w *Workflow) createOnce(ctx context.Context, actorID string, in dto.CreatePurchaseRequest) (*entity.Purchase, error) {
	var purchase *entity.Purchase
	err := w.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		supplier, err := repos.Suppliers.GetByID(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if supplier == nil || !supplier.Active {
			return fmt.Errorf("%w: proveedor %s", domain.ErrNotFound, in.SupplierID)
		}
		lines := make([]pricing.Line, 0, len(in.Lines))
		for _, l := range in.Lines {
			p, err := repos.Products.GetByID(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if p == nil || !p.Active {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, l.ProductID)
			}
			lines = append(lines, pricing.Line{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
		}
		quote := pricing.PricePurchase(lines)

		number, err := w.numbers.Next(ctx, repos.Purchases.NumberExists)
		if err != nil {
			return err
		}
		now := w.now()
		purchase = &entity.Purchase{
			ID:         uuid.New().String(),
			Number:     number,
			SupplierID: supplier.ID,
			EmployeeID: actorID,
			Status:     entity.PurchasePendiente,
			Subtotal:   quote.Subtotal,
			Tax:        quote.Tax,
			Total:      quote.Total,
			ExpectedAt: in.ExpectedAt,
			Notes:      strings.TrimSpace(in.Notes),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		for _, pl := range quote.Lines {
			purchase.Lines = append(purchase.Lines, entity.PurchaseLine{
				ID:              uuid.New().String(),
				PurchaseID:      purchase.ID,
				ProductID:       pl.ProductID,
				QuantityOrdered: pl.Quantity,
				UnitPrice:       pl.UnitPrice,
				Subtotal:        pl.Subtotal,
				Status:          entity.LinePendiente,
			})
		}
		return repos.Purchases.Create(ctx, purchase)
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// Receive registra una entrega del proveedor. Cada cantidad recibida genera una entrada
// en el ledger; la compra queda entregada cuando todas las líneas están completas.
func (w *Workflow) Receive(ctx context.Context, actorID, purchaseID string, in dto.ReceivePurchaseRequest) (*dto.PurchaseResponse, error) {
	ctx, span := tracing.Start(ctx, "purchases.Receive")
	defer span.End()
	start := w.now()

	if actorID == "" || purchaseID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}

	var (
		purchase *entity.Purchase
		touched  []*entity.Product
		entries  int
	)
	err := w.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		purchase, err = repos.Purchases.GetForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if purchase == nil {
			return domain.ErrNotFound
		}
		if purchase.Status == entity.PurchaseCancelado {
			return fmt.Errorf("%w: la compra %s está cancelada", domain.ErrInvalidState, purchase.Number)
		}
		if purchase.Status == entity.PurchaseEntregado {
			return fmt.Errorf("%w: la compra %s ya fue entregada", domain.ErrInvalidState, purchase.Number)
		}

		now := w.now()
		receivedAt := now
		if in.ReceivedAt != nil {
			receivedAt = *in.ReceivedAt
		}
		purchase.ReceivedAt = &receivedAt

		index := make(map[string]int, len(purchase.Lines))
		for i, l := range purchase.Lines {
			index[l.ID] = i
		}
		// Validación completa antes de escribir
		type receipt struct {
			line     *entity.PurchaseLine
			quantity int
		}
		receipts := make([]receipt, 0, len(in.Lines))
		for _, r := range in.Lines {
			i, ok := index[r.LineID]
			if !ok {
				return fmt.Errorf("%w: la línea %s no pertenece a la compra", domain.ErrNotFound, r.LineID)
			}
			line := &purchase.Lines[i]
			if line.Status == entity.LineCancelado {
				return fmt.Errorf("%w: la línea %s está cancelada", domain.ErrInvalidState, line.ID)
			}
			if r.Quantity < 0 || line.QuantityReceived+r.Quantity > line.QuantityOrdered {
				return fmt.Errorf("%w: línea %s, pendiente %d, recibido %d", domain.ErrInvalidQuantity, line.ID, line.Remaining(), r.Quantity)
			}
			if r.Quantity == 0 {
				continue
			}
			receipts = append(receipts, receipt{line: line, quantity: r.Quantity})
		}

		// Mismo orden de bloqueo que los pedidos: por id de producto
		sort.SliceStable(receipts, func(a, b int) bool {
			return receipts[a].line.ProductID < receipts[b].line.ProductID
		})

		reason := "Entrada por compra #" + purchase.Number
		for _, r := range receipts {
			line := r.line
			if line.QuantityReceived+r.quantity > line.QuantityOrdered {
				return fmt.Errorf("%w: línea %s, pendiente %d, recibido %d", domain.ErrInvalidQuantity, line.ID, line.Remaining(), r.quantity)
			}
			_, product, err := w.ledger.ApplyInTx(ctx, repos, appinventory.MovementInput{
				ProductID:    line.ProductID,
				Type:         entity.MovementEntrada,
				Quantity:     r.quantity,
				ActorID:      actorID,
				Reason:       reason,
				DocumentID:   purchase.ID,
				DocumentType: entity.DocumentCompra,
			})
			if err != nil {
				return err
			}
			touched = append(touched, product)
			entries++

			line.QuantityReceived += r.quantity
			if line.QuantityReceived == line.QuantityOrdered {
				line.Status = entity.LineCompleto
			} else {
				line.Status = entity.LineParcial
			}
			if err := repos.Purchases.UpdateLine(ctx, line); err != nil {
				return err
			}
		}

		next := entity.PurchaseProcesado
		if purchase.AllLinesComplete() {
			next = entity.PurchaseEntregado
		}
		if !purchase.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, purchase.Status, next)
		}
		purchase.Status = next
		purchase.UpdatedAt = now
		return repos.Purchases.Update(ctx, purchase)
	})
	if err != nil {
		return nil, err
	}

	metrics.PurchaseReceiptsTotal.WithLabelValues(string(purchase.Status)).Inc()
	metrics.InventoryMovementsTotal.WithLabelValues(string(entity.MovementEntrada)).Add(float64(entries))
	metrics.WorkflowLatency.WithLabelValues("receive_purchase").Observe(w.now().Sub(start).Seconds())

	resp := toPurchaseResponse(purchase)
	w.publish(ctx, ports.Event{Type: ports.EventPurchaseReceived, Key: purchase.ID, OccurredAt: purchase.UpdatedAt, Payload: resp})
	w.ledger.NotifyLowStock(ctx, touched...)
	return resp, nil
}

// CancelPurchase cancela la compra y sus líneas no completas. Lo ya recibido permanece en inventario.
func (w *Workflow) CancelPurchase(ctx context.Context, actorID, purchaseID string) (*dto.PurchaseResponse, error) {
	ctx, span := tracing.Start(ctx, "purchases.CancelPurchase")
	defer span.End()
	if actorID == "" || purchaseID == "" {
		return nil, domain.ErrInvalidInput
	}

	var purchase *entity.Purchase
	err := w.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		purchase, err = repos.Purchases.GetForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if purchase == nil {
			return domain.ErrNotFound
		}
		if !purchase.Status.CanTransitionTo(entity.PurchaseCancelado) {
			return fmt.Errorf("%w: la compra está %s", domain.ErrInvalidTransition, purchase.Status)
		}
		for i := range purchase.Lines {
			line := &purchase.Lines[i]
			if line.Status == entity.LineCompleto {
				continue
			}
			line.Status = entity.LineCancelado
			if err := repos.Purchases.UpdateLine(ctx, line); err != nil {
				return err
			}
		}
		purchase.Status = entity.PurchaseCancelado
		purchase.UpdatedAt = w.now()
		return repos.Purchases.Update(ctx, purchase)
	})
	if err != nil {
		return nil, err
	}

	resp := toPurchaseResponse(purchase)
	w.publish(ctx, ports.Event{Type: ports.EventPurchaseCancelled, Key: purchase.ID, OccurredAt: purchase.UpdatedAt, Payload: resp})
	w.log.Info().Str("purchase", purchase.Number).Str("actor", actorID).Msg("compra cancelada")
	return resp, nil
}

// UpdatePurchase edita la fecha esperada y las notas de una compra abierta.
func (w *Workflow) UpdatePurchase(ctx context.Context, purchaseID string, in dto.UpdatePurchaseRequest) (*dto.PurchaseResponse, error) {
	if purchaseID == "" {
		return nil, domain.ErrInvalidInput
	}
	var purchase *entity.Purchase
	err := w.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		purchase, err = repos.Purchases.GetForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if purchase == nil {
			return domain.ErrNotFound
		}
		if purchase.Status.IsTerminal() {
			return fmt.Errorf("%w: la compra está %s", domain.ErrInvalidState, purchase.Status)
		}
		if in.ExpectedAt != nil {
			purchase.ExpectedAt = in.ExpectedAt
		}
		if in.Notes != nil {
			purchase.Notes = strings.TrimSpace(*in.Notes)
		}
		purchase.UpdatedAt = w.now()
		return repos.Purchases.Update(ctx, purchase)
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseResponse(purchase), nil
}

// Get devuelve una compra con sus líneas.
func (w *Workflow) Get(ctx context.Context, purchaseID string) (*dto.PurchaseResponse, error) {
	p, err := w.repos.Purchases.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return toPurchaseResponse(p), nil
}

// List lista compras por proveedor y estado.
func (w *Workflow) List(ctx context.Context, filter entity.PurchaseFilter) (*dto.PurchaseListResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	list, err := w.repos.Purchases.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PurchaseResponse, 0, len(list))
	for _, p := range list {
		resp := toPurchaseResponse(p)
		resp.Lines = nil
		items = append(items, *resp)
	}
	return &dto.PurchaseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}, nil
}

func (w *Workflow) publish(ctx context.Context, ev ports.Event) {
	if err := w.events.Publish(ctx, ev); err != nil {
		w.log.Warn().Err(err).Str("type", ev.Type).Str("key", ev.Key).Msg("no se pudo publicar evento")
	}
}

func toPurchaseResponse(p *entity.Purchase) *dto.PurchaseResponse {
	resp := &dto.PurchaseResponse{
		ID:         p.ID,
		Number:     p.Number,
		SupplierID: p.SupplierID,
		EmployeeID: p.EmployeeID,
		Status:     string(p.Status),
		Subtotal:   p.Subtotal,
		Tax:        p.Tax,
		Total:      p.Total,
		ExpectedAt: p.ExpectedAt,
		ReceivedAt: p.ReceivedAt,
		Notes:      p.Notes,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	for _, l := range p.Lines {
		resp.Lines = append(resp.Lines, dto.PurchaseLineResponse{
			ID:               l.ID,
			ProductID:        l.ProductID,
			QuantityOrdered:  l.QuantityOrdered,
			QuantityReceived: l.QuantityReceived,
			UnitPrice:        l.UnitPrice,
			Subtotal:         l.Subtotal,
			Status:           string(l.Status),
		})
	}
	return resp
}
