package route

import (
	"fmt"
	"io"
	"slices"
)

// Distribution counts how many keys land in each bucket.
type Distribution struct {
	Counts []int
	Total  int
}

// Distribute routes every key through r and tallies the buckets.
func (r *Router) Distribute(keys []string) Distribution {
	d := Distribution{Counts: make([]int, r.buckets)}
	for _, k := range keys {
		d.Counts[r.Bucket(k)]++
		d.Total++
	}
	return d
}

// SequentialKeys returns n keys of the form "<prefix>-0001" ... with the
// numeric part zero-padded to width digits.
func SequentialKeys(prefix string, n, width int) []string {
	keys := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		keys = append(keys, fmt.Sprintf("%s-%0*d", prefix, width, i))
	}
	return keys
}

// Min returns the smallest bucket count.
func (d Distribution) Min() int {
	if len(d.Counts) == 0 {
		return 0
	}
	return slices.Min(d.Counts)
}

// Max returns the largest bucket count.
func (d Distribution) Max() int {
	if len(d.Counts) == 0 {
		return 0
	}
	return slices.Max(d.Counts)
}

// Mean returns the average number of keys per bucket.
func (d Distribution) Mean() float64 {
	if len(d.Counts) == 0 {
		return 0
	}
	return float64(d.Total) / float64(len(d.Counts))
}

// Spread returns Max minus Min.
func (d Distribution) Spread() int {
	return d.Max() - d.Min()
}

// Empty returns the number of buckets that received no keys.
func (d Distribution) Empty() int {
	n := 0
	for _, c := range d.Counts {
		if c == 0 {
			n++
		}
	}
	return n
}

// WriteTo prints one "Bucket i: n keys" line per bucket.
func (d Distribution) WriteTo(w io.Writer) (int64, error) {
	var written int64
	n, err := fmt.Fprintln(w, "Bucket distribution:")
	written += int64(n)
	if err != nil {
		return written, err
	}
	for i, c := range d.Counts {
		n, err := fmt.Fprintf(w, "Bucket %d: %d keys\n", i, c)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
