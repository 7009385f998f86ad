package dual

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// rows is a contiguous range along the first axis.
type rows struct{ start, end int }

func (r rows) Start() int { return r.start }
func (r rows) End() int   { return r.end }
func (r rows) Step() int  { return 1 }

// batchOf returns a view of the bat-th batch of size examples in a.
func batchOf(a *tensor.Dense, bat, size int) (*tensor.Dense, error) {
	v, err := a.Slice(rows{bat * size, (bat + 1) * size})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to slice batch %d of %v", bat, a.Shape())
	}
	return v.(*tensor.Dense), nil
}
