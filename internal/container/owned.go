package container

import "io"

// Owned ties a connection to the injector lifecycle: injector.Shutdown closes it.
type Owned[T io.Closer] struct {
	Value T
}

func (o Owned[T]) Shutdown() error {
	return o.Value.Close()
}
