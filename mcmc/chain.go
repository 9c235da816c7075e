package mcmc

import "gonum.org/v1/gonum/mat"

// Chain is the append-only history of visited states. All states
// share one flat backing buffer.
type Chain struct {
	dim  int
	data []float64
}

// NewChain creates an empty chain of dim-dimensional states with room
// for capStates states.
func NewChain(dim, capStates int) *Chain {
	if capStates < 0 {
		capStates = 0
	}
	return &Chain{
		dim:  dim,
		data: make([]float64, 0, dim*capStates),
	}
}

// Dim returns the state dimension.
func (c *Chain) Dim() int { return c.dim }

// Len returns the number of stored states.
func (c *Chain) Len() int { return len(c.data) / c.dim }

// Append copies x to the end of the chain.
func (c *Chain) Append(x []float64) {
	c.data = append(c.data, x...)
}

// At returns the i-th state. The slice aliases the chain buffer and
// should not be modified.
func (c *Chain) At(i int) []float64 {
	return c.data[i*c.dim : (i+1)*c.dim]
}

// Last returns the most recent state.
func (c *Chain) Last() []float64 {
	return c.At(c.Len() - 1)
}

// Truncate drops all states and restarts the chain from x.
func (c *Chain) Truncate(x []float64) {
	c.data = c.data[:0]
	c.Append(x)
}

// Dense returns the chain as a Len times Dim matrix sharing the chain
// buffer.
func (c *Chain) Dense() *mat.Dense {
	return mat.NewDense(c.Len(), c.dim, c.data)
}
