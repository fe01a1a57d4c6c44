package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/models"
	"github.com/Cheertaboi/chat-storefront-service/internal/repository"
)

// DiscountStore is the persistence the discount registry needs.
type DiscountStore interface {
	GetByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	List(ctx context.Context) ([]models.DiscountCode, error)
	Create(ctx context.Context, d models.DiscountCode) (int64, error)
	SetActive(ctx context.Context, code string, active bool) error
	Consume(ctx context.Context, q repository.DBTX, code string) error
}

type DiscountService struct {
	codes  DiscountStore
	now    func() time.Time
	logger *zap.Logger
}

func NewDiscountService(codes DiscountStore, logger *zap.Logger) *DiscountService {
	return &DiscountService{codes: codes, now: time.Now, logger: logger}
}

// WithClock replaces the time source used for expiry checks.
func (s *DiscountService) WithClock(now func() time.Time) *DiscountService {
	s.now = now
	return s
}

var (
	errInvalidCode = newError(KindDiscount, ReasonInvalidCode,
		"Invalid discount code. Please try again or continue without a code.")
	errExpiredCode = newError(KindDiscount, ReasonExpired,
		"This discount code has expired.")
	errExhaustedCode = newError(KindDiscount, ReasonExhaustedUses,
		"This discount code has reached its usage limit.")
	errNotYourCode = newError(KindDiscount, ReasonNotAuthorizedForCode,
		"This discount code is not valid for your account.")
)

// Redeem validates code for the buyer and quotes the discounted total. It
// does not consume a use; that happens when the order is finalized.
func (s *DiscountService) Redeem(ctx context.Context, code string, userID int64, username string, total decimal.Decimal) (models.DiscountQuote, error) {
	code = models.NormalizeCode(code)
	if code == "" {
		return models.DiscountQuote{}, errInvalidCode
	}

	d, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		return models.DiscountQuote{}, err
	}
	if d == nil || !d.Active {
		return models.DiscountQuote{}, errInvalidCode
	}
	if d.ExpiredAt(s.now()) {
		return models.DiscountQuote{}, errExpiredCode
	}
	if d.Exhausted() {
		return models.DiscountQuote{}, errExhaustedCode
	}
	if !d.AllowedFor(userID, username) {
		return models.DiscountQuote{}, errNotYourCode
	}

	return models.DiscountQuote{
		Code:          d.Code,
		Percentage:    d.Percentage,
		OriginalTotal: total,
		NewTotal:      d.Apply(total),
	}, nil
}

// Consume counts one use of code inside the caller's transaction.
func (s *DiscountService) Consume(ctx context.Context, q repository.DBTX, code string) error {
	err := s.codes.Consume(ctx, q, code)
	if errors.Is(err, repository.ErrConflict) {
		return errExhaustedCode
	}
	return err
}

// NewDiscountCode is the admin input for creating a code.
type NewDiscountCode struct {
	Code           string          `json:"code"`
	Percentage     decimal.Decimal `json:"percentage"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	MaxUses        int             `json:"max_uses"`
	IsGeneral      bool            `json:"is_general"`
	ClientID       *int64          `json:"client_id,omitempty"`
	ClientUsername string          `json:"client_username,omitempty"`
}

var hundred = decimal.NewFromInt(100)

func (in NewDiscountCode) validate() error {
	code := models.NormalizeCode(in.Code)
	if code == "" || strings.ContainsAny(code, " \t\n") {
		return validationError("code must be a single non-empty word")
	}
	if in.Percentage.IsNegative() || in.Percentage.GreaterThan(hundred) {
		return validationError("percentage must be between 0 and 100")
	}
	if in.MaxUses < models.UnlimitedUses || in.MaxUses == 0 {
		return validationError("max_uses must be positive, or -1 for unlimited")
	}
	if !in.IsGeneral && in.ClientID == nil && models.NormalizeUsername(in.ClientUsername) == "" {
		return validationError("a client-specific code needs a client id or username")
	}
	return nil
}

func (s *DiscountService) Create(ctx context.Context, in NewDiscountCode) (*models.DiscountCode, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	existing, err := s.codes.GetByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, newError(KindConflict, ReasonInvalidInput, "code %s already exists", existing.Code)
	}

	d := models.DiscountCode{
		Code:           models.NormalizeCode(in.Code),
		Percentage:     in.Percentage,
		ExpiryDate:     in.ExpiryDate,
		MaxUses:        in.MaxUses,
		IsGeneral:      in.IsGeneral,
		ClientID:       in.ClientID,
		ClientUsername: models.NormalizeUsername(in.ClientUsername),
		Active:         true,
		CreatedAt:      s.now().UTC(),
	}
	id, err := s.codes.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	d.ID = id
	s.logger.Info("discount code created",
		zap.String("code", d.Code),
		zap.String("percentage", d.Percentage.String()),
		zap.Int("max_uses", d.MaxUses),
		zap.Bool("general", d.IsGeneral),
	)
	return &d, nil
}

func (s *DiscountService) List(ctx context.Context) ([]models.DiscountCode, error) {
	return s.codes.List(ctx)
}

func (s *DiscountService) Deactivate(ctx context.Context, code string) error {
	err := s.codes.SetActive(ctx, code, false)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindNotFound, ReasonInvalidCode, "code %s not found", models.NormalizeCode(code))
	}
	return err
}
