package registration

import "coursemate/internal/catalog"

// CreditStatus classifies a credit total against the registration bounds.
type CreditStatus string

const (
	BelowMinimum   CreditStatus = "below_minimum"
	Valid          CreditStatus = "valid"
	ExceedsMaximum CreditStatus = "exceeds_maximum"
)

// Bounds is the inclusive credit-hour range a submission must fall in.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

var DefaultBounds = Bounds{Min: 15, Max: 24}

func (b Bounds) Classify(total int) CreditStatus {
	switch {
	case total < b.Min:
		return BelowMinimum
	case total > b.Max:
		return ExceedsMaximum
	default:
		return Valid
	}
}

// Classify checks total against DefaultBounds.
func Classify(total int) CreditStatus {
	return DefaultBounds.Classify(total)
}

// TotalCredits sums the credit hours of the selected ids. Ids missing from
// courses contribute nothing.
func TotalCredits(selected []int, courses []catalog.Course) int {
	idx := catalog.Index(courses)
	total := 0
	for _, id := range selected {
		if c, ok := idx[id]; ok {
			total += c.CreditHours
		}
	}
	return total
}
