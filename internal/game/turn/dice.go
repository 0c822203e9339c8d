package turn

import (
	"math/rand/v2"
	"sync"
)

// Dice draws a die value in [1, 6].
type Dice interface {
	Roll() int
}

// RandomDice draws from the process-wide math/rand/v2 source, which is safe for
// concurrent use.
type RandomDice struct{}

func (RandomDice) Roll() int { return rand.IntN(6) + 1 }

// FixedDice replays a sequence of values, wrapping around at the end.
type FixedDice struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewFixedDice returns dice that yield values in order.
func NewFixedDice(values ...int) *FixedDice {
	if len(values) == 0 {
		values = []int{1}
	}
	return &FixedDice{values: values}
}

func (d *FixedDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.values[d.next%len(d.values)]
	d.next++
	return v
}
