// Package cache provee una abstracción chica de cache con dos backends:
// memoria (in-process, dev/testing) y Redis (distribuido).
package cache

import "time"

// Cache define las operaciones que necesita el key resolver.
type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
	Delete(k string)
}
