package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"mailassist_server/pkg/logger"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// MemoOptions configures Memoize.
type MemoOptions struct {
	Namespace string
	TTL       time.Duration
	// Timeout bounds a shared call; zero leaves it to fn.
	Timeout time.Duration
	Logger  *logger.Logger
}

// Memoize wraps fn so successful results are stored for opts.TTL under the
// key produced by keyFn. Errors are never cached. Concurrent calls for the
// same key share one invocation of fn, which runs detached from any single
// caller's cancellation; a cancelled caller stops waiting without failing the
// others. Store failures degrade to calling fn.
func Memoize[Req any, Res any](
	store Store,
	opts MemoOptions,
	keyFn func(Req) string,
	fn func(context.Context, Req) (Res, error),
) func(context.Context, Req) (Res, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.WithField("memo", opts.Namespace)

	var group singleflight.Group

	return func(ctx context.Context, req Req) (Res, error) {
		key := memoKey(opts.Namespace, keyFn(req))

		if data, ok, err := store.Get(ctx, key); err != nil {
			log.WithError(err).Warn("memo lookup failed")
		} else if ok {
			var cached Res
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
			log.Warn("memo entry undecodable, recomputing")
		}

		ch := group.DoChan(key, func() (any, error) {
			callCtx := context.WithoutCancel(ctx)
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(callCtx, opts.Timeout)
				defer cancel()
			}

			res, err := fn(callCtx, req)
			if err != nil {
				return res, err
			}
			if data, err := json.Marshal(res); err != nil {
				log.WithError(err).Warn("memo encode failed")
			} else if err := store.Set(callCtx, key, data, opts.TTL); err != nil {
				log.WithError(err).Warn("memo store failed")
			}
			return res, nil
		})

		var zero Res
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case r := <-ch:
			if r.Err != nil {
				return zero, r.Err
			}
			res, _ := r.Val.(Res)
			return res, nil
		}
	}
}

func memoKey(namespace, raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return namespace + ":" + hex.EncodeToString(sum[:])
}
