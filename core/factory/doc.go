// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Optimizer backends and metrics sinks are built this way:
//
//	reg := factory.NewRegistry[solver.Optimizer]()
//	reg.Register("simplex", func(conf map[string]any) (solver.Optimizer, error) {
//	    var c lpsolver.Config
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return lpsolver.New(c, nil), nil
//	})
//	opt, err := reg.Create(factory.ModuleConfig{Type: "simplex", Conf: map[string]any{"tolerance": 1e-9}})
package factory
