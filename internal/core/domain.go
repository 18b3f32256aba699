package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	KindExpense  Kind = "expense"
	KindIncome   Kind = "income"
	KindUpcoming Kind = "upcoming"
)

const (
	GoalWithin    GoalStatus = "within"
	GoalAttention GoalStatus = "attention"
	GoalExceeded  GoalStatus = "exceeded"
)

const DefaultShoppingCategory = "Outros"

type (
	// Kind discriminates the three money record flavours.
	Kind string

	GoalStatus string

	// Profile is a user as seen by the ledger. CoupleID points at the
	// partner's profile id and is not guaranteed to be reciprocated.
	Profile struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		CoupleID    string `json:"couple_id,omitempty"`
	}

	// Record is an expense, an income or an upcoming expense. OccursOn is
	// the expense date or the upcoming due date.
	Record struct {
		ID           string          `json:"id"`
		Kind         Kind            `json:"kind" validate:"required,oneof=expense income upcoming"`
		Name         string          `json:"name" validate:"max=200"`
		Amount       decimal.Decimal `json:"amount"`
		Category     string          `json:"category"`
		OccursOn     Date            `json:"occurs_on"`
		OwnerID      string          `json:"owner_id" validate:"required"`
		PayerID      string          `json:"payer_id,omitempty"`
		Observations string          `json:"observations,omitempty" validate:"max=1000"`
		IsPaid       bool            `json:"is_paid"`
		IsMonthly    bool            `json:"is_monthly"`
		CreatedAt    time.Time       `json:"created_at"`
	}

	// Goal is a monthly savings or spending target.
	Goal struct {
		ID            string          `json:"id"`
		Name          string          `json:"name" validate:"max=200"`
		Category      string          `json:"category"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		Month         string          `json:"month" validate:"required,datetime=2006-01"`
		OwnerID       string          `json:"owner_id" validate:"required"`
		CreatedAt     time.Time       `json:"created_at"`
	}

	ShoppingItem struct {
		ID        string    `json:"id"`
		Name      string    `json:"name" validate:"max=200"`
		Quantity  int       `json:"quantity" validate:"min=1,max=9999"`
		Category  string    `json:"category"`
		Completed bool      `json:"completed"`
		OwnerID   string    `json:"owner_id" validate:"required"`
		CreatedAt time.Time `json:"created_at"`
	}
)

var (
	// ExpenseCategories apply to expenses and upcoming expenses.
	ExpenseCategories = []string{"Moradia", "Alimentação", "Transporte", "Lazer", "Saúde", "Educação", "Outros"}
	IncomeCategories  = []string{"Salário", "Freelance", "Investimentos", "Presentes", "Outros"}
	// GoalCategories mirror expense categories plus a general bucket.
	GoalCategories     = []string{"Geral", "Moradia", "Alimentação", "Transporte", "Lazer", "Saúde", "Educação", "Outros"}
	ShoppingCategories = []string{"Frutas e Verduras", "Carnes", "Laticínios", "Padaria", "Limpeza", "Higiene", "Bebidas", "Outros"}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidKind      = errors.New("invalid record kind")
	ErrEmptyName        = errors.New("empty name")
	ErrNameTooLong      = errors.New("name too long")
	ErrMissingPayer     = errors.New("missing payer")
	ErrPayerNotInCouple = errors.New("payer is not part of the couple")
	ErrMissingOwner     = errors.New("missing owner")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrGoalRegression   = errors.New("goal progress cannot decrease")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Categories returns the allowed categories of the kind.
func (k Kind) Categories() []string {
	switch k {
	case KindExpense, KindUpcoming:
		return ExpenseCategories
	case KindIncome:
		return IncomeCategories
	default:
		return nil
	}
}

// HasPayer reports whether records of the kind carry a payer.
func (k Kind) HasPayer() bool {
	return k == KindExpense || k == KindUpcoming
}

func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome || k == KindUpcoming
}

func (r Record) Validate() error {
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := structError(validate.Struct(r)); err != nil {
		return err
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if !validAmount(r.Amount) {
		return ErrInvalidAmount
	}
	if err := r.OccursOn.Validate(); err != nil {
		return err
	}
	if !slices.Contains(r.Kind.Categories(), r.Category) {
		return ErrInvalidCategory
	}
	if r.Kind.HasPayer() && strings.TrimSpace(r.PayerID) == "" {
		return ErrMissingPayer
	}
	return nil
}

// Projection returns a copy of r moved to another day, unpaid and without
// an id.
func (r Record) Projection(on Date) Record {
	p := r
	p.ID = ""
	p.OccursOn = on
	p.IsPaid = false
	p.CreatedAt = time.Time{}
	return p
}

// Realize turns an upcoming expense into the expense recorded when it is
// paid on the given day.
func (r Record) Realize(on Date) Record {
	return Record{
		Kind:         KindExpense,
		Name:         r.Name,
		Amount:       r.Amount,
		Category:     r.Category,
		OccursOn:     on,
		OwnerID:      r.OwnerID,
		PayerID:      r.PayerID,
		Observations: r.Observations,
	}
}

func (g Goal) Validate() error {
	if err := structError(validate.Struct(g)); err != nil {
		return err
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.TargetAmount.IsPositive() || !validAmount(g.TargetAmount) || !validAmount(g.CurrentAmount) {
		return ErrInvalidAmount
	}
	if !slices.Contains(GoalCategories, g.Category) {
		return ErrInvalidCategory
	}
	return nil
}

// Progress returns the achieved share of the target in percent.
func (g Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	return g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Round(1)
}

func (g Goal) Status() GoalStatus {
	p := g.Progress()
	switch {
	case p.GreaterThanOrEqual(decimal.NewFromInt(100)):
		return GoalExceeded
	case p.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return GoalAttention
	default:
		return GoalWithin
	}
}

// WithProgress returns g with a new current amount. Progress only grows.
func (g Goal) WithProgress(amount decimal.Decimal) (Goal, error) {
	if !validAmount(amount) {
		return g, ErrInvalidAmount
	}
	if amount.LessThan(g.CurrentAmount) {
		return g, ErrGoalRegression
	}
	g.CurrentAmount = amount
	return g, nil
}

func (s ShoppingItem) Validate() error {
	if err := structError(validate.Struct(s)); err != nil {
		return err
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if !slices.Contains(ShoppingCategories, s.Category) {
		return ErrInvalidCategory
	}
	return nil
}

// structError maps the first validator failure to a domain sentinel.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Kind":
		return ErrInvalidKind
	case "Name":
		return fmt.Errorf("%w (max %s characters)", ErrNameTooLong, fe.Param())
	case "OwnerID":
		return ErrMissingOwner
	case "Month":
		return ErrInvalidMonth
	case "Quantity":
		return ErrInvalidQuantity
	default:
		return fmt.Errorf("invalid %s: %s", strings.ToLower(fe.Field()), fe.Tag())
	}
}
