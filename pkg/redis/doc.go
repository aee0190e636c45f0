// Package redis connects to Redis with retries and exposes a minimal
// key-value Storage used to persist the session context.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := session.NewRedisStore(redis.NewStorage(client), key, 0)
//
// Probe returns a ping check for the daemon's readiness endpoint.
package redis
