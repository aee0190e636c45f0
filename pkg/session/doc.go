// Package session owns the identity the process acts for: the user email,
// the tenant and the bearer token.
//
// A Holder is the single authoritative copy. It is seeded from the
// environment or loaded from a Store, and every component reads the identity
// through it:
//
//	holder := session.NewHolder(session.NewRedisStore(storage, cfg.Key, cfg.TTL))
//	if _, err := holder.Load(ctx); errors.Is(err, session.ErrNotFound) {
//		err = holder.Set(ctx, cfg.Context())
//	}
//
// MemoryStore keeps the context for the lifetime of the process. RedisStore
// persists it as JSON so a restarted daemon resumes with the same identity.
// KeyringStore does the same in the operating system keyring.
package session
