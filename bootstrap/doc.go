// Package bootstrap runs the lifecycle of a vidprofile process: config
// defaults and validation, logger setup, component start and stop, and
// hooks around them.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.RegisterComponent(redisComponent)
//	app.OnConfigure(buildServices)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return process(ctx)
//	})
//
// Components start in registration order and stop in reverse. A failed
// startup stops whatever already started.
package bootstrap
