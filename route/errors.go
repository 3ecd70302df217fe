package route

import "errors"

// ErrInvalidBucketCount is returned when a bucket count below one is supplied.
var ErrInvalidBucketCount = errors.New("route: bucket count must be at least 1")
