// Package importer loads fixture data into a started platform.
//
// The importer writes a container info descriptor describing the identity
// provider and the import-relevant backend services, then starts the
// import runner with the descriptor mounted at
// containers.DescriptorMountPath. The runner does the actual data loading.
//
// Completion is detected by running `pgrep -f <processName>` inside the
// runner at the configured poll interval. A non-zero exit or a failed exec
// means the import process is gone. When the overall timeout elapses first,
// Run returns an *ImportTimeoutError. It does not tear the platform down.
package importer
