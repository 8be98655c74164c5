package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxOrderNumberAttempts bounds retries when a generated order number collides
const maxOrderNumberAttempts = 5

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrCylinderTypeNotFound = errors.New("cylinder type not found")
	ErrConcurrentUpdate     = errors.New("order was modified by another request")
	ErrOrderNumberExhausted = errors.New("could not allocate a unique order number")
	ErrTransactionInUse     = errors.New("transaction id already settles another order")
)

// OrderService is the persistence and lifecycle API for CO2 orders
type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (*models.CO2Order, error)
	Get(ctx context.Context, id uint) (*models.CO2Order, error)
	GetByOrderNumber(ctx context.Context, number string) (*models.CO2Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, actor *uint, note string) (*models.CO2Order, models.TransitionResult, error)
	SchedulePickup(ctx context.Context, id uint, date time.Time, actor *uint) (*models.CO2Order, models.TransitionResult, error)
	ScheduleDelivery(ctx context.Context, id uint, date time.Time, actor *uint) (*models.CO2Order, models.TransitionResult, error)
	Cancel(ctx context.Context, id uint, actor *uint, reason string) (*models.CO2Order, models.TransitionResult, error)
	MarkCylinderPickedUp(ctx context.Context, id uint, cylinderID, note string) (*models.CO2Order, models.CylinderResult, error)
	MarkCylinderRefilled(ctx context.Context, id uint, cylinderID, note string) (*models.CO2Order, models.CylinderResult, error)
	MarkCylinderDelivered(ctx context.Context, id uint, cylinderID, note string) (*models.CO2Order, models.CylinderResult, error)
	UpdatePayment(ctx context.Context, id uint, status models.PaymentStatus, transactionID string) (*models.CO2Order, bool, error)
	UpdateNotes(ctx context.Context, id uint, in NotesUpdate) (*models.CO2Order, error)
	SetProofImage(ctx context.Context, id uint, key string) (*models.CO2Order, string, error)
	GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.CO2Order, error)
	GetOrdersByUser(ctx context.Context, userID uint) ([]models.CO2Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.CO2Order, int64, error)
	History(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error)
}

// CreateOrderInput is everything a customer supplies when placing an order
type CreateOrderInput struct {
	UserID                uint
	OrderType             models.OrderType
	CylinderTypeID        uint
	Quantity              int
	CylinderSerials       []string
	DeliveryAddress       models.Address
	PickupAddress         models.Address
	DeliveryInstructions  string
	PreferredPickupDate   *time.Time
	PreferredDeliveryDate *time.Time
	PaymentMethod         models.PaymentMethod
	DeliveryCharge        decimal.Decimal
	Discount              decimal.Decimal
	CustomerNotes         string
}

// NotesUpdate changes admin-facing notes; nil fields are left alone
type NotesUpdate struct {
	AdminNotes    *string
	InternalNotes *string
}

// OrderFilter narrows the admin order listing
type OrderFilter struct {
	Status *models.OrderStatus
	UserID *uint
	Offset int
	Limit  int
}

// CO2OrderService implements OrderService on gorm
type CO2OrderService struct {
	db          *gorm.DB
	notifier    Notifier
	now         func() time.Time
	orderNumber func(time.Time) string
}

var orderServiceInstance OrderService

// NewCO2OrderService builds an order service; a nil notifier disables notifications
func NewCO2OrderService(db *gorm.DB, notifier Notifier) *CO2OrderService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &CO2OrderService{
		db:          db,
		notifier:    notifier,
		now:         time.Now,
		orderNumber: models.GenerateOrderNumber,
	}
}

// InitOrderService creates the shared order service instance
func InitOrderService(db *gorm.DB, notifier Notifier) OrderService {
	orderServiceInstance = NewCO2OrderService(db, notifier)
	return orderServiceInstance
}

// GetOrderService returns the shared order service instance
func GetOrderService() OrderService {
	return orderServiceInstance
}

// SetOrderService replaces the shared order service instance (primarily for testing)
func SetOrderService(service OrderService) {
	orderServiceInstance = service
}

// SetClock overrides the time source
func (s *CO2OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// SetOrderNumberGenerator overrides how order numbers are produced
func (s *CO2OrderService) SetOrderNumberGenerator(gen func(time.Time) string) {
	s.orderNumber = gen
}

// Create prices and stores a new order with one cylinder unit per quantity
func (s *CO2OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.CO2Order, error) {
	if !in.OrderType.Valid() {
		return nil, &models.ValidationError{Field: "order_type", Message: fmt.Sprintf("unknown order type %q", in.OrderType)}
	}
	if len(in.CylinderSerials) > 0 && len(in.CylinderSerials) != in.Quantity {
		return nil, &models.ValidationError{Field: "cylinder_serials", Message: "count must match quantity"}
	}
	seen := make(map[string]bool, len(in.CylinderSerials))
	for _, serial := range in.CylinderSerials {
		if serial == "" || seen[serial] {
			return nil, &models.ValidationError{Field: "cylinder_serials", Message: "serials must be unique and non-empty"}
		}
		seen[serial] = true
	}

	var ct models.CylinderType
	if err := s.db.WithContext(ctx).First(&ct, in.CylinderTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCylinderTypeNotFound
		}
		return nil, fmt.Errorf("failed to load cylinder type: %w", err)
	}
	if !ct.Active {
		return nil, models.ErrCylinderTypeInactive
	}
	price, err := ct.PriceFor(in.OrderType)
	if err != nil {
		return nil, err
	}

	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCashOnDelivery
	}

	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		now := s.now()
		order := &models.CO2Order{
			OrderNumber:           s.orderNumber(now),
			UserID:                in.UserID,
			OrderType:             in.OrderType,
			CylinderTypeID:        ct.ID,
			Quantity:              in.Quantity,
			UnitPrice:             price,
			DeliveryCharge:        in.DeliveryCharge,
			Discount:              in.Discount,
			DeliveryAddress:       in.DeliveryAddress,
			PickupAddress:         in.PickupAddress,
			DeliveryInstructions:  in.DeliveryInstructions,
			PreferredPickupDate:   in.PreferredPickupDate,
			PreferredDeliveryDate: in.PreferredDeliveryDate,
			Status:                models.StatusPending,
			PaymentMethod:         method,
			PaymentStatus:         models.PaymentPending,
			CustomerNotes:         in.CustomerNotes,
			CreatedAt:             now,
		}
		for i := 0; i < in.Quantity; i++ {
			serial := fmt.Sprintf("%s-%d", order.OrderNumber, i+1)
			if len(in.CylinderSerials) > 0 {
				serial = in.CylinderSerials[i]
			}
			order.Cylinders = append(order.Cylinders, models.CylinderUnit{CylinderID: serial, Status: models.CylinderPending})
		}
		if err := order.Validate(); err != nil {
			return nil, err
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(order).Error; err != nil {
				return err
			}
			return tx.Create(&models.OrderStatusHistory{
				OrderID:   order.ID,
				ToStatus:  models.StatusPending,
				ChangedBy: &in.UserID,
				Note:      "order placed",
			}).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.LogWarn("order number %s already taken (attempt %d)", order.OrderNumber, attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}

		utils.LogInfo("Created CO2 order %s for user %d", order.OrderNumber, order.UserID)
		created, err := s.Get(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		created.FillDerived(now)
		return created, nil
	}

	return nil, ErrOrderNumberExhausted
}

// Get loads one order with its customer, cylinder type and cylinders
func (s *CO2OrderService) Get(ctx context.Context, id uint) (*models.CO2Order, error) {
	return loadOrder(s.db.WithContext(ctx), "co2_orders.id = ?", id)
}

// GetByOrderNumber loads one order by its public number
func (s *CO2OrderService) GetByOrderNumber(ctx context.Context, number string) (*models.CO2Order, error) {
	return loadOrder(s.db.WithContext(ctx), "order_number = ?", number)
}

func loadOrder(db *gorm.DB, query string, arg interface{}) (*models.CO2Order, error) {
	var order models.CO2Order
	err := preloadOrder(db).Where(query, arg).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("User").
		Preload("CylinderType").
		Preload("Cylinders", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// UpdateStatus moves an order through the lifecycle
func (s *CO2OrderService) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, actor *uint, note string) (*models.CO2Order, models.TransitionResult, error) {
	return s.transition(ctx, id, actor, note, func(o *models.CO2Order, now time.Time) (models.TransitionResult, error) {
		return o.UpdateStatus(status, now)
	})
}

// SchedulePickup books a pickup date
func (s *CO2OrderService) SchedulePickup(ctx context.Context, id uint, date time.Time, actor *uint) (*models.CO2Order, models.TransitionResult, error) {
	note := "pickup scheduled for " + date.Format(time.RFC3339)
	return s.transition(ctx, id, actor, note, func(o *models.CO2Order, now time.Time) (models.TransitionResult, error) {
		return o.SchedulePickup(date, now)
	})
}

// ScheduleDelivery books a delivery date
func (s *CO2OrderService) ScheduleDelivery(ctx context.Context, id uint, date time.Time, actor *uint) (*models.CO2Order, models.TransitionResult, error) {
	note := "delivery scheduled for " + date.Format(time.RFC3339)
	return s.transition(ctx, id, actor, note, func(o *models.CO2Order, now time.Time) (models.TransitionResult, error) {
		return o.ScheduleDelivery(date, now)
	})
}

// Cancel cancels an order that has not been picked up
func (s *CO2OrderService) Cancel(ctx context.Context, id uint, actor *uint, reason string) (*models.CO2Order, models.TransitionResult, error) {
	return s.transition(ctx, id, actor, reason, func(o *models.CO2Order, now time.Time) (models.TransitionResult, error) {
		return o.Cancel(now)
	})
}

// MarkCylinderPickedUp records the pickup of a single cylinder
func (s *CO2OrderService) MarkCylinderPickedUp(ctx context.Context, id uint, cylinderID, note string) (*models.CO2Order, models.CylinderResult, error) {
	return s.markCylinder(ctx, id, func(o *models.CO2Order, now time.Time) (models.CylinderResult, error) {
		return o.MarkCylinderPickedUp(cylinderID, now, note)
	})
}

// MarkCylinderRefilled records that a single cylinder is refilled
func (s *CO2OrderService) MarkCylinderRefilled(ctx context.Context, id uint, cylinderID, note string) (*models.CO2Order, models.CylinderResult, error) {
	return s.markCylinder(ctx, id, func(o *models.CO2Order, now time.Time) (models.CylinderResult, error) {
		return o.MarkCylinderRefilled(cylinderID, now, note)
	})
}

// MarkCylinderDelivered records the delivery of a single cylinder
func (s *CO2OrderService) MarkCylinderDelivered(ctx context.Context, id uint, cylinderID, note string) (*models.CO2Order, models.CylinderResult, error) {
	return s.markCylinder(ctx, id, func(o *models.CO2Order, now time.Time) (models.CylinderResult, error) {
		return o.MarkCylinderDelivered(cylinderID, now, note)
	})
}

// UpdatePayment moves the payment status of an order.
// A transaction id can only ever be recorded on one order.
func (s *CO2OrderService) UpdatePayment(ctx context.Context, id uint, status models.PaymentStatus, transactionID string) (*models.CO2Order, bool, error) {
	var changed bool
	order, err := s.apply(ctx, id, func(tx *gorm.DB, o *models.CO2Order, now time.Time) (bool, error) {
		if transactionID != "" {
			var taken int64
			if err := tx.Model(&models.CO2Order{}).
				Where("transaction_id = ? AND id <> ?", transactionID, o.ID).
				Count(&taken).Error; err != nil {
				return false, fmt.Errorf("failed to check transaction id: %w", err)
			}
			if taken > 0 {
				return false, fmt.Errorf("%w: %s", ErrTransactionInUse, transactionID)
			}
		}

		var err error
		changed, err = o.ApplyPayment(status, transactionID)
		return changed || transactionID != "", err
	})
	return order, changed, err
}

// UpdateNotes replaces the admin and internal notes
func (s *CO2OrderService) UpdateNotes(ctx context.Context, id uint, in NotesUpdate) (*models.CO2Order, error) {
	return s.apply(ctx, id, func(tx *gorm.DB, o *models.CO2Order, now time.Time) (bool, error) {
		changed := false
		if in.AdminNotes != nil && *in.AdminNotes != o.AdminNotes {
			o.AdminNotes = *in.AdminNotes
			changed = true
		}
		if in.InternalNotes != nil && *in.InternalNotes != o.InternalNotes {
			o.InternalNotes = *in.InternalNotes
			changed = true
		}
		return changed, nil
	})
}

// SetProofImage stores the key of the delivery proof photo and returns the key it replaced
func (s *CO2OrderService) SetProofImage(ctx context.Context, id uint, key string) (*models.CO2Order, string, error) {
	var previous string
	order, err := s.apply(ctx, id, func(tx *gorm.DB, o *models.CO2Order, now time.Time) (bool, error) {
		if o.ProofImageKey != nil {
			previous = *o.ProofImageKey
		}
		o.ProofImageKey = &key
		return previous != key, nil
	})
	return order, previous, err
}

// GetOrdersByStatus returns every order in the given status, newest first
func (s *CO2OrderService) GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.CO2Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownStatus, status)
	}
	var orders []models.CO2Order
	if err := preloadOrder(s.db.WithContext(ctx)).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

// GetOrdersByUser returns every order placed by the user, newest first
func (s *CO2OrderService) GetOrdersByUser(ctx context.Context, userID uint) ([]models.CO2Order, error) {
	var orders []models.CO2Order
	if err := preloadOrder(s.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

// ListOrders returns one page of orders matching filter and the total match count
func (s *CO2OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]models.CO2Order, int64, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: %q", models.ErrUnknownStatus, *filter.Status)
	}
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.CO2Order{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = utils.DefaultPageLimit
	}
	var orders []models.CO2Order
	if err := preloadOrder(s.db.WithContext(ctx)).
		Scopes(scope).
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, total, nil
}

// History returns the status changes of an order, oldest first
func (s *CO2OrderService) History(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	return rows, nil
}

type mutation func(tx *gorm.DB, o *models.CO2Order, now time.Time) (bool, error)

// apply loads the order, runs fn and, if fn reports a change, stores the order
// under its version in the same transaction
func (s *CO2OrderService) apply(ctx context.Context, id uint, fn mutation) (*models.CO2Order, error) {
	var order *models.CO2Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, "co2_orders.id = ?", id)
		if err != nil {
			return err
		}
		before := append([]models.CylinderUnit(nil), o.Cylinders...)

		now := s.now()
		changed, err := fn(tx, o, now)
		if err != nil {
			return err
		}
		if changed {
			if err := saveOrder(tx, o, before); err != nil {
				return err
			}
		}
		o.FillDerived(now)
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *CO2OrderService) transition(ctx context.Context, id uint, actor *uint, note string, op func(o *models.CO2Order, now time.Time) (models.TransitionResult, error)) (*models.CO2Order, models.TransitionResult, error) {
	var res models.TransitionResult
	order, err := s.apply(ctx, id, func(tx *gorm.DB, o *models.CO2Order, now time.Time) (bool, error) {
		var err error
		res, err = op(o, now)
		if err != nil || !res.Changed {
			return false, err
		}
		return true, tx.Create(&models.OrderStatusHistory{
			OrderID:    o.ID,
			FromStatus: res.From,
			ToStatus:   res.To,
			ChangedBy:  actor,
			Note:       note,
		}).Error
	})
	if err != nil {
		return nil, res, err
	}

	if res.Changed {
		utils.LogInfo("Order %s moved %s -> %s (%d cylinders updated)", order.OrderNumber, res.From, res.To, res.CylindersUpdated)
		if err := s.notifier.NotifyStatusChange(ctx, order, res); err != nil {
			utils.LogWarn("failed to notify customer about order %s: %v", order.OrderNumber, err)
		}
	}
	return order, res, nil
}

func (s *CO2OrderService) markCylinder(ctx context.Context, id uint, op func(o *models.CO2Order, now time.Time) (models.CylinderResult, error)) (*models.CO2Order, models.CylinderResult, error) {
	var res models.CylinderResult
	order, err := s.apply(ctx, id, func(tx *gorm.DB, o *models.CO2Order, now time.Time) (bool, error) {
		var err error
		res, err = op(o, now)
		return res.Changed, err
	})
	if err != nil {
		return nil, res, err
	}
	return order, res, nil
}

// saveOrder writes every column of o if its version is unchanged since it was
// loaded, then the cylinders that differ from before
func saveOrder(tx *gorm.DB, o *models.CO2Order, before []models.CylinderUnit) error {
	prev := o.Version
	o.Version = prev + 1

	result := tx.Model(o).
		Select("*").
		Omit(clause.Associations, "CreatedAt").
		Where("version = ?", prev).
		Updates(o)
	if result.Error != nil {
		o.Version = prev
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		o.Version = prev
		return ErrConcurrentUpdate
	}

	for i := range o.Cylinders {
		if i < len(before) && o.Cylinders[i] == before[i] {
			continue
		}
		if err := tx.Save(&o.Cylinders[i]).Error; err != nil {
			return fmt.Errorf("failed to update cylinder %s: %w", o.Cylinders[i].CylinderID, err)
		}
	}
	return nil
}
