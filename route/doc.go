// Package route maps keys to shard buckets.
//
// Keys are hashed with xxHash64 (optionally seeded once at construction) and
// the digest is assigned to a bucket with Jump Consistent Hash. Assignment is
// a pure function of (digest, bucket count): nothing is persisted, and growing
// the bucket count from n to n+1 moves only the keys that must land in the new
// bucket, about 1/(n+1) of them.
//
// Route is the standalone entry point:
//
//	bucket, err := route.Route("user:42", 8)
//
// Router binds a hasher and a validated bucket count for repeated use:
//
//	r, err := route.NewRouter(len(backends))
//	backend := backends[r.Bucket(key)]
package route
