package solver

import (
	"errors"

	"github.com/kilianp07/vpp/core/factory"
	"github.com/kilianp07/vpp/core/model"
)

var registry = factory.NewRegistry[Optimizer]()

// Register adds an optimizer backend factory identified by name.
func Register(name string, f factory.Factory[Optimizer]) error {
	return registry.Register(name, f)
}

// Backends lists the registered backend names.
func Backends() []string { return registry.Names() }

// New creates the backend selected by cfg. An unknown backend or a backend
// that fails to initialise yields a SolverUnavailableError.
func New(cfg factory.ModuleConfig) (Optimizer, error) {
	opt, err := registry.Create(cfg)
	if err != nil {
		var ue *model.SolverUnavailableError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, &model.SolverUnavailableError{Solver: cfg.Type, Err: err}
	}
	return opt, nil
}
