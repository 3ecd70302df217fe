package route

// jumpMultiplier is the 64-bit LCG multiplier from Lamping & Veach,
// "A Fast, Minimal Memory, Consistent Hash Algorithm".
const jumpMultiplier = 2862933555777941757

// Jump assigns digest to a bucket in [0, buckets) using Jump Consistent Hash.
//
// For a fixed digest, raising buckets from n to n+1 either keeps the
// assignment or moves it to bucket n; no key ever moves between two old
// buckets. Returns ErrInvalidBucketCount if buckets < 1.
func Jump(digest uint64, buckets int) (int, error) {
	if buckets < 1 {
		return 0, ErrInvalidBucketCount
	}
	return jump(digest, buckets), nil
}

func jump(state uint64, buckets int) int {
	var b int64 = -1
	var j int64
	n := int64(buckets)
	for j < n {
		b = j
		state = state*jumpMultiplier + 1
		j = int64(float64(b+1) * (float64(int64(1)<<31) / float64((state>>33)+1)))
	}
	return int(b)
}
