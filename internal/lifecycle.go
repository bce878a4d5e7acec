package internal

import "strings"

// primaryIndex is the position of "{verb}_{action}" in the candidate list.
const primaryIndex = 5

// Candidates returns the ten lifecycle method names for a request, in the
// order they run:
//
//	{verb}
//	{before}
//	{verb}_{before}
//	{before}_{action}
//	{verb}_{before}_{action}
//	{verb}_{action}
//	{verb}_{after}_{action}
//	{after}_{action}
//	{verb}_{after}
//	{after}
//
// The order is the precedence contract between controllers and the dispatcher.
func Candidates(verb string, phases Phases, action string) [10]string {
	b, a := phases.Before, phases.After
	return [10]string{
		verb,
		b,
		verb + "_" + b,
		b + "_" + action,
		verb + "_" + b + "_" + action,
		verb + "_" + action,
		verb + "_" + a + "_" + action,
		a + "_" + action,
		verb + "_" + a,
		a,
	}
}

// PlanStep is one method of an execution plan.
type PlanStep struct {
	Handler HandlerFunc
	Name    string
}

// Plan is the ordered subset of the candidates a controller declares.
type Plan struct {
	Steps []PlanStep
	// Primary reports whether "{verb}_{action}" is declared.
	// A plan without it cannot serve the request.
	Primary bool
}

// BuildPlan intersects the candidate list with the controller's methods,
// keeping candidate order regardless of how the controller declares them.
func BuildPlan(methods Methods, verb string, phases Phases, action string) Plan {
	var plan Plan
	for i, name := range Candidates(verb, phases, action) {
		h, ok := methods.Lookup(name)
		if !ok {
			continue
		}
		if i == primaryIndex {
			plan.Primary = true
		}
		if plan.hasStep(name) {
			continue
		}
		plan.Steps = append(plan.Steps, PlanStep{Name: name, Handler: h})
	}
	return plan
}

// Names returns the method names in execution order.
func (p Plan) Names() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Name
	}
	return names
}

// Run invokes each step in order and stops at the first error.
// A step returning ErrHalt stops the plan the same way.
func (p Plan) Run(c Context) error {
	for _, s := range p.Steps {
		if err := s.Handler(c); err != nil {
			return err
		}
	}
	return nil
}

// hasStep guards against the same method running twice when two candidates
// collapse to one name (an action called "before", for instance).
func (p Plan) hasStep(name string) bool {
	for _, s := range p.Steps {
		if strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}
