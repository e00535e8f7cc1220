// Package bootstrap orchestrates the application run lifecycle.
//
// An App takes startup sources and a command-line argument vector and drives
// a fixed phase sequence: discover and order run listeners, broadcast
// starting, build the Environment, create the container context, load
// sources, refresh, and broadcast running. Any failure in any phase moves
// the run to failed — listeners are notified, the exception reporter chain
// runs, finished is always broadcast, and the original error is returned to
// the caller.
//
// # Quick Start
//
//	app := bootstrap.New("my-service",
//	    bootstrap.WithSources(bootstrap.Source{
//	        Name: "db",
//	        Load: func(reg *component.Registry) error { return reg.Register(db) },
//	    }),
//	)
//	c, err := app.Run(ctx, os.Args[1:]...)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Listeners and reporters are discovered through an extension registry and
// constructed fresh for every run; a custom registry can be supplied per App
// for tests or embedding.
package bootstrap
