// Package redis provides helpers for connecting to a Redis server and
// coordinating queue runs through it.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the connection using the supplied configuration
//     and gives up once ConnectTimeout elapses.
//   - Lock, a single-key lock (SET NX PX with a token-checked release) used to
//     keep two trigger invocations from draining the queue at the same time.
//   - Healthcheck, a closure suitable for readiness probes.
//
// Configuration is described by the Config struct whose fields are populated
// from environment variables via github.com/caarlos0/env. Redis is optional:
// an empty REDIS_URL disables the lock.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	lock := redis.NewLock(client, cfg.LockKey, cfg.LockTTL)
//	release, ok, err := lock.TryLock(ctx)
//	if err != nil || !ok {
//	    return err
//	}
//	defer release(context.WithoutCancel(ctx))
//
// # Errors
//
// Connect returns ErrEmptyConnectionURL, ErrFailedToParseRedisConnString or
// ErrRedisNotReady. A release that finds the key taken over by another owner
// returns ErrLockNotHeld.
package redis
