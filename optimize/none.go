package optimize

// None is an optimizer which computes the initial value and exits.
type None struct {
	BaseOptimizer
}

// NewNone creates an optimizer which computes the initial likelihood
// only.
func NewNone() *None {
	return &None{
		BaseOptimizer: BaseOptimizer{method: "none"},
	}
}

// Run computes the likelihood at the current point.
func (n *None) Run(iterations int) {
	n.start()
	n.PrintHeader(n.parameters)
	n.recordCall(n.Likelihood())
	n.PrintLine(n.parameters, n.l)
	n.saveCheckpoint(true)
}
