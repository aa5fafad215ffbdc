package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/database"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type cartStore interface {
	FindByStudent(ctx context.Context, studentID string) (*models.Cart, error)
	GetOrCreate(ctx context.Context, studentID string) (*models.Cart, error)
	AddItem(ctx context.Context, item *models.CartItem) (bool, error)
	FindItem(ctx context.Context, id string) (*models.CartItem, error)
	RemoveItem(ctx context.Context, id string) error
	ListItemDetails(ctx context.Context, exec sqlx.QueryerContext, cartID string) ([]models.CartItemDetail, error)
	Clear(ctx context.Context, tx *sqlx.Tx, cartID string) error
}

type scheduleSlotChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type checkoutEnroller interface {
	EnrollInTx(ctx context.Context, tx *sqlx.Tx, studentID, offeringID string) (*models.Enrollment, error)
}

// CartDeps bundles the collaborators of CartService.
type CartDeps struct {
	Tx        txProvider
	Carts     cartStore
	Slots     scheduleSlotChecker
	Students  studentLocker
	Validator *CheckoutValidator
	Enroller  checkoutEnroller
	Records   transcriptInvalidator
	Metrics   *MetricsService
	Audit     auditRecorder
	Notifier  Notifier
}

// CartService stages schedule slots and turns a valid cart into enrollments.
type CartService struct {
	tx        txProvider
	carts     cartStore
	slots     scheduleSlotChecker
	students  studentLocker
	checkout  *CheckoutValidator
	enroller  checkoutEnroller
	records   transcriptInvalidator
	metrics   *MetricsService
	effects   sideEffects
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCartService constructs CartService.
func NewCartService(deps CartDeps, validate *validator.Validate, logger *zap.Logger) *CartService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		tx:        deps.Tx,
		carts:     deps.Carts,
		slots:     deps.Slots,
		students:  deps.Students,
		checkout:  deps.Validator,
		enroller:  deps.Enroller,
		records:   deps.Records,
		metrics:   deps.Metrics,
		effects:   sideEffects{audit: deps.Audit, notifier: deps.Notifier, logger: logger},
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// AddToCart stages a schedule slot, creating the cart on first use.
func (s *CartService) AddToCart(ctx context.Context, actor models.Actor, req dto.AddToCartRequest) (*models.CartItem, error) {
	if actor.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can use a cart")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cart payload")
	}

	exists, err := s.slots.Exists(ctx, req.ScheduleSlotID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check schedule slot")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "schedule slot not found")
	}

	cart, err := s.carts.GetOrCreate(ctx, actor.StudentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open cart")
	}
	item := &models.CartItem{CartID: cart.ID, ScheduleSlotID: req.ScheduleSlotID, AddedAt: s.now().UTC()}
	inserted, err := s.carts.AddItem(ctx, item)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to add cart item")
	}
	if !inserted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "schedule slot already in cart")
	}

	s.effects.record(ctx, actor, models.AuditActionCartAdd, "cart_item", item.ID)
	return item, nil
}

// ViewCart lists the caller's staged items. A student without a cart sees an
// empty one.
func (s *CartService) ViewCart(ctx context.Context, studentID string) (*dto.CartView, error) {
	view := &dto.CartView{Items: []dto.CartItemView{}}
	cart, err := s.carts.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return view, nil
		}
		return nil, appErrors.Internal(err, "failed to load cart")
	}
	view.CartID = cart.ID

	items, err := s.carts.ListItemDetails(ctx, nil, cart.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load cart items")
	}
	for _, item := range items {
		view.Items = append(view.Items, cartItemView(item))
	}
	return view, nil
}

// RemoveFromCart deletes one of the caller's cart items.
func (s *CartService) RemoveFromCart(ctx context.Context, actor models.Actor, itemID string) error {
	item, err := s.carts.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "cart item not found")
		}
		return appErrors.Internal(err, "failed to load cart item")
	}
	cart, err := s.carts.FindByStudent(ctx, actor.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "cart item not found")
		}
		return appErrors.Internal(err, "failed to load cart")
	}
	if cart.ID != item.CartID {
		return appErrors.Clone(appErrors.ErrNotFound, "cart item not found")
	}
	if err := s.carts.RemoveItem(ctx, itemID); err != nil {
		return appErrors.Internal(err, "failed to remove cart item")
	}
	s.effects.record(ctx, actor, models.AuditActionCartRemove, "cart_item", itemID)
	return nil
}

// ValidateCheckout previews checkout without changing anything. It reads in a
// read-only transaction that is always rolled back.
func (s *CartService) ValidateCheckout(ctx context.Context, studentID string) (*dto.CheckoutValidation, error) {
	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to begin checkout preview")
	}
	defer func() { _ = tx.Rollback() }()

	items, err := s.cartItems(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}
	result, err := s.checkout.Validate(ctx, tx, studentID, items)
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}
	return result, nil
}

// EnrollFromCart validates the cart and, if every rule passes, creates one
// pending enrollment per distinct offering and clears the cart. Any failure
// rolls the whole checkout back.
func (s *CartService) EnrollFromCart(ctx context.Context, actor models.Actor) (*dto.CheckoutResult, error) {
	if actor.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can check out a cart")
	}

	var (
		result  = &dto.CheckoutResult{EnrollmentIDs: []string{}}
		student *models.StudentProfile
	)
	err := database.WithTx(ctx, s.tx, nil, func(tx *sqlx.Tx) error {
		var err error
		student, err = s.students.LockForUpdate(ctx, tx, actor.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return appErrors.Internal(err, "failed to lock student")
		}

		cart, err := s.carts.FindByStudent(ctx, actor.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrBadRequest, "cart is empty")
			}
			return appErrors.Internal(err, "failed to load cart")
		}
		items, err := s.carts.ListItemDetails(ctx, tx, cart.ID)
		if err != nil {
			return appErrors.Internal(err, "failed to load cart items")
		}
		validation, err := s.checkout.Validate(ctx, tx, actor.StudentID, items)
		if err != nil {
			return err
		}

		for _, offeringID := range validation.OfferingIDs {
			enrollment, err := s.enroller.EnrollInTx(ctx, tx, actor.StudentID, offeringID)
			if err != nil {
				return err
			}
			result.EnrollmentIDs = append(result.EnrollmentIDs, enrollment.ID)
		}
		if err := s.carts.Clear(ctx, tx, cart.ID); err != nil {
			return appErrors.Internal(err, "failed to clear cart")
		}
		return nil
	})
	if err != nil {
		s.recordRejection(err)
		return nil, asAppError(err, "checkout failed")
	}

	if s.records != nil {
		s.records.InvalidateTranscript(ctx, actor.StudentID)
	}
	for _, id := range result.EnrollmentIDs {
		s.effects.record(ctx, actor, models.AuditActionCheckout, "enrollment", id)
	}
	s.effects.notify(ctx, student.UserID, NotificationEnrollmentCreated, map[string]interface{}{
		"enrollment_ids": result.EnrollmentIDs,
	})
	s.logger.Info("checkout completed", zap.String("student_id", actor.StudentID), zap.Int("enrollments", len(result.EnrollmentIDs)))
	return result, nil
}

func (s *CartService) cartItems(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.CartItemDetail, error) {
	cart, err := s.carts.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to load cart")
	}
	items, err := s.carts.ListItemDetails(ctx, exec, cart.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load cart items")
	}
	return items, nil
}

func (s *CartService) recordRejection(err error) {
	var typed *appErrors.Error
	if errors.As(err, &typed) && typed.Status < 500 {
		s.metrics.RecordCheckoutRejection(typed.Code)
	}
}

func cartItemView(item models.CartItemDetail) dto.CartItemView {
	view := dto.CartItemView{
		ID:             item.CartItemID,
		ScheduleSlotID: item.ScheduleSlotID,
		OfferingID:     stringValue(item.OfferingID),
		CourseCode:     stringValue(item.CourseCode),
		CourseName:     stringValue(item.CourseName),
		Section:        stringValue(item.SectionCode),
		Room:           stringValue(item.RoomName),
		Instructor:     stringValue(item.InstructorName),
		AddedAt:        item.AddedAt,
	}
	if item.DayOfWeek != nil && item.StartTime != nil && item.EndTime != nil {
		view.Schedule = item.TimeSlot().String()
	}
	return view
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
