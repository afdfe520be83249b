package domain

// EditRule decides whether a manual rate cell may be edited.
type EditRule string

const (
	// EditAlways allows edits on any date.
	EditAlways EditRule = "always"
	// EditFutureOnly allows edits for today and later; past cells are locked.
	EditFutureOnly EditRule = "future_only"
	// EditNever locks every cell.
	EditNever EditRule = "never"
)

// EditPolicy maps currencies to their edit rule. Currencies missing from the
// policy are editable, except the base currency which is always locked.
type EditPolicy map[Currency]EditRule

// DefaultEditPolicy locks the base currency and past USD cells.
func DefaultEditPolicy() EditPolicy {
	return EditPolicy{
		UZS: EditNever,
		USD: EditFutureOnly,
		EUR: EditAlways,
		RUB: EditAlways,
	}
}

// CanEdit reports whether the (date, currency) cell is editable as seen on today.
func (p EditPolicy) CanEdit(currency Currency, date, today Day) bool {
	if currency.IsBase() {
		return false
	}
	switch p[currency] {
	case EditNever:
		return false
	case EditFutureOnly:
		return !date.Before(today)
	default:
		return true
	}
}
