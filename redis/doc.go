// Package redis wraps go-redis with vidprofile logging, configuration
// conventions and component lifecycle.
//
// # Typed Operations
//
// TypedStore keeps JSON documents under a key prefix:
//
//	store := redis.NewTypedStore[prompt.Template](client, "prompts")
//	tmpl, err := store.Load(ctx, "cv_generation") // nil, nil when absent
//
// # Quick Start
//
//	cfg := redis.Config{Enabled: true, Addr: "localhost:6379"}
//	comp := redis.NewComponent(cfg, log)
//	_ = comp.Start(ctx)
//	client := comp.Client()
package redis
