// Package registry holds the ContainerRegistry: an in-memory map from a
// logical container key to its started handle.
//
// Containers are added by the starter as soon as they are running, so after a
// failed start the registry still lists exactly what has to be torn down.
// Teardown walks Keys() in reverse registration order.
//
// GetAll always returns a copy. Health sweeps iterate that copy while
// startup or teardown may still be modifying the registry.
package registry
