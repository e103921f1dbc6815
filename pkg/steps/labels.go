package steps

import "fmt"

// Label is the human name of step shown in progress indicators.
func Label(step int) string {
	switch step {
	case 1:
		return "Category & package"
	case 2:
		return "Details"
	case 3:
		return "Review"
	case MaxSteps:
		return "Confirmation"
	default:
		return fmt.Sprintf("Step %d", step)
	}
}
