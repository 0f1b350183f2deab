// Package images resolves the image reference used for each logical
// container.
//
// Resolve picks override ?? default and verifies the candidate:
//   - a verified override is used as is
//   - an override that fails verification logs a warning and falls back to
//     the compiled-in default
//   - a default that fails verification is still returned; the container
//     start reports the concrete runtime error
//
// RuntimeVerifier accepts images already present in the local image store
// and otherwise starts and stops a throwaway container within a bounded
// timeout. ResolveAll verifies many images concurrently; every image is
// verified at most once per Resolver and failures stay isolated per image.
package images
