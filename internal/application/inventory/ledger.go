package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	"github.com/jhoicas/comic-store-api/internal/application/ports"
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/inventory"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
	"github.com/jhoicas/comic-store-api/pkg/metrics"
	"github.com/jhoicas/comic-store-api/pkg/tracing"
)

// MovementInput datos de un movimiento del ledger. Para ajuste, Quantity es el stock absoluto.
type MovementInput struct {
	ProductID    string
	Type         entity.MovementType
	Quantity     int
	ActorID      string
	Reason       string
	DocumentID   string
	DocumentType entity.DocumentType
}

// Ledger es la primitiva de mutación de stock: bloquea la fila del producto (SELECT FOR UPDATE),
// aplica la regla del tipo de movimiento, actualiza stock_actual y agrega el movimiento,
// todo en la transacción del llamador.
type Ledger struct {
	txRunner  repository.TxRunner
	movements repository.InventoryMovementRepository
	events    ports.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewLedger construye el ledger. movements se usa solo para consultas fuera de transacción.
func NewLedger(
	txRunner repository.TxRunner,
	movements repository.InventoryMovementRepository,
	events ports.EventPublisher,
	log zerolog.Logger,
) *Ledger {
	if events == nil {
		events = ports.NoopPublisher{}
	}
	return &Ledger{
		txRunner:  txRunner,
		movements: movements,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

// ApplyInTx registra un movimiento usando los repos de la transacción en curso.
// Devuelve el movimiento con stock_before y stock_after y el producto ya actualizado.
func (l *Ledger) ApplyInTx(ctx context.Context, repos repository.Repos, in MovementInput) (*entity.InventoryMovement, *entity.Product, error) {
	if in.ProductID == "" || in.ActorID == "" {
		return nil, nil, domain.ErrInvalidInput
	}
	if !in.Type.Valid() {
		return nil, nil, domain.ErrInvalidInput
	}
	typeID, err := repos.Movements.ResolveType(ctx, in.Type)
	if err != nil {
		return nil, nil, err
	}
	// Bloquea la fila del producto hasta el commit para serializar escritores concurrentes
	product, err := repos.Products.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, domain.ErrNotFound
	}
	after, err := inventory.NextStock(product.ID, product.StockActual, in.Type, in.Quantity)
	if err != nil {
		return nil, nil, err
	}
	now := l.now()
	if err := repos.Products.UpdateStock(ctx, product.ID, after, now); err != nil {
		return nil, nil, err
	}
	mov := &entity.InventoryMovement{
		ID:             uuid.New().String(),
		ProductID:      product.ID,
		MovementTypeID: typeID,
		Type:           in.Type,
		Quantity:       in.Quantity,
		StockBefore:    product.StockActual,
		StockAfter:     after,
		ActorID:        in.ActorID,
		Reason:         in.Reason,
		DocumentID:     in.DocumentID,
		DocumentType:   in.DocumentType,
		CreatedAt:      now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, nil, err
	}
	product.StockActual = after
	product.UpdatedAt = now
	return mov, product, nil
}

// Apply ejecuta un movimiento aislado en su propia transacción.
func (l *Ledger) Apply(ctx context.Context, in MovementInput) (*entity.InventoryMovement, error) {
	ctx, span := tracing.Start(ctx, "inventory.Apply")
	defer span.End()

	var (
		mov     *entity.InventoryMovement
		product *entity.Product
	)
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		mov, product, err = l.ApplyInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.InventoryMovementsTotal.WithLabelValues(string(mov.Type)).Inc()
	if mov.Type == entity.MovementAjuste {
		l.publish(ctx, ports.Event{Type: ports.EventInventoryAdjusted, Key: mov.ProductID, OccurredAt: mov.CreatedAt, Payload: toMovementResponse(mov)})
	}
	l.NotifyLowStock(ctx, product)
	return mov, nil
}

// RegisterMovement adapta el request HTTP del movimiento genérico.
func (l *Ledger) RegisterMovement(ctx context.Context, actorID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	t := entity.MovementType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !t.Valid() || in.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "Movimiento manual de " + string(t)
	}
	input := MovementInput{
		ProductID: in.ProductID,
		Type:      t,
		Quantity:  in.Quantity,
		ActorID:   actorID,
		Reason:    reason,
	}
	if t == entity.MovementAjuste {
		input.DocumentType = entity.DocumentAjuste
	}
	mov, err := l.Apply(ctx, input)
	if err != nil {
		return nil, err
	}
	return toMovementResponse(mov), nil
}

// Adjust fija el stock absoluto de un producto (conteo físico). Solo administradores.
func (l *Ledger) Adjust(ctx context.Context, actorID string, in dto.AdjustmentRequest) (*dto.MovementResponse, error) {
	if in.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "Ajuste manual de inventario"
	}
	mov, err := l.Apply(ctx, MovementInput{
		ProductID:    in.ProductID,
		Type:         entity.MovementAjuste,
		Quantity:     in.NewStock,
		ActorID:      actorID,
		Reason:       reason,
		DocumentType: entity.DocumentAjuste,
	})
	if err != nil {
		return nil, err
	}
	return toMovementResponse(mov), nil
}

// List lista movimientos con filtros de producto, tipo y rango de fechas.
func (l *Ledger) List(ctx context.Context, filter entity.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	list, err := l.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}, nil
}

// NotifyLowStock publica stock.low por cada producto que quedó bajo su mínimo.
// Se llama después del commit.
func (l *Ledger) NotifyLowStock(ctx context.Context, products ...*entity.Product) {
	for _, p := range products {
		if p == nil || !p.IsLowStock() {
			continue
		}
		l.publish(ctx, ports.Event{
			Type:       ports.EventStockLow,
			Key:        p.ID,
			OccurredAt: l.now(),
			Payload: dto.LowStockDTO{
				ProductID:   p.ID,
				SKU:         p.SKU,
				ProductName: p.Name,
				StockActual: p.StockActual,
				StockMinimo: p.StockMinimo,
				Deficit:     p.StockMinimo - p.StockActual,
			},
		})
	}
}

func (l *Ledger) publish(ctx context.Context, ev ports.Event) {
	if err := l.events.Publish(ctx, ev); err != nil {
		l.log.Warn().Err(err).Str("type", ev.Type).Str("key", ev.Key).Msg("no se pudo publicar evento")
	}
}

func toMovementResponse(m *entity.InventoryMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:           m.ID,
		ProductID:    m.ProductID,
		Type:         string(m.Type),
		Quantity:     m.Quantity,
		StockBefore:  m.StockBefore,
		StockAfter:   m.StockAfter,
		ActorID:      m.ActorID,
		Reason:       m.Reason,
		DocumentID:   m.DocumentID,
		DocumentType: string(m.DocumentType),
		CreatedAt:    m.CreatedAt,
	}
}
