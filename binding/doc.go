// Package binding maps script-visible names to native Go callables.
//
// Functions are grouped under named providers in a Registry. A provider is
// installed into an embedded scripting engine with InstallInto, which hands
// every function of the provider to the engine in a single Bind call. Engines
// either accept the whole provider or none of it.
//
// Registration happens once, while the process initializes. After that the
// registry is only read, so InstallInto may run concurrently for different
// engine instances.
//
//	err := binding.Default.Register("EntityInitProviderGenerated", "test",
//	    func(ctx context.Context, args []any) ([]any, error) {
//	        log.FromContext(ctx).Info("Test")
//	        return nil, nil
//	    })
//
//	err = binding.Default.InstallInto(ctx, "EntityInitProviderGenerated", engine)
package binding
