package quota

import "fmt"

// Plan is a subscription tier. The set is closed; values are validated with
// ParsePlan where they enter the system.
type Plan string

const (
	PlanFree  Plan = "FREE"
	PlanBasic Plan = "BASIC"
	PlanPro   Plan = "PRO"
)

// Plans lists every tier in ascending capacity.
var Plans = []Plan{PlanFree, PlanBasic, PlanPro}

// LimitFor returns the total number of uploads a plan admits. An unknown plan
// panics: plans are validated at the boundary so reaching the default arm is
// a programming error.
func LimitFor(p Plan) int {
	switch p {
	case PlanFree:
		return 100
	case PlanBasic:
		return 1000
	case PlanPro:
		return 3000
	default:
		panic(fmt.Sprintf("quota: unknown plan %q", string(p)))
	}
}

// ParsePlan validates an external plan value.
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(s); p {
	case PlanFree, PlanBasic, PlanPro:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q (want one of %v)", ErrInvalidPlan, s, Plans)
}

func (p Plan) String() string {
	return string(p)
}

func (p Plan) IsFree() bool {
	return p == PlanFree
}

func (p Plan) IsPaid() bool {
	return p == PlanBasic || p == PlanPro
}
