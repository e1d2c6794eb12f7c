package domain

// AccountType distinguishes wallet accounts for recommendation matching.
type AccountType string

const (
	AccountTypeAlipay AccountType = "ALIPAY"
	AccountTypeWeChat AccountType = "WECHAT"
	AccountTypeBank   AccountType = "BANK"
	AccountTypeCash   AccountType = "CASH"
	AccountTypeOther  AccountType = "OTHER"
)

// Account is a payment account owned by a user. Managed externally; the
// pipeline only reads it for recommendation and validation.
type Account struct {
	ID           string
	UserID       string
	Name         string
	Type         AccountType
	BalanceCents int64
	IsDefault    bool
}

// CategoryType splits categories into the two booking directions.
type CategoryType string

const (
	CategoryExpense CategoryType = "EXPENSE"
	CategoryIncome  CategoryType = "INCOME"
)

// CategoryTypeForDirection maps a payment direction to the category type
// used for booking it. Everything that is not income books as expense.
func CategoryTypeForDirection(d Direction) CategoryType {
	if d == DirectionIncome {
		return CategoryIncome
	}
	return CategoryExpense
}

// Category is a booking category. Level 2 entries are leaves; level 1
// entries are their parents.
type Category struct {
	ID       string
	UserID   string
	Name     string
	Type     CategoryType
	Level    int
	IsActive bool
}
