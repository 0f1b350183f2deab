// Package starter brings the platform up in stages.
//
// The stages always run in this order:
//
//  1. core: Postgres, then the identity provider
//  2. services: the enabled built-in backend services, ordered by the
//     dependency graph (permission-svc requires tenant-svc)
//  3. gateway: the backend-for-frontend, which requires the identity provider
//  4. ui: the UI shell, which requires the gateway
//  5. custom: user-declared service, gateway and UI containers
//
// Dependencies are checked twice. The service graph is checked for missing
// nodes before the services stage creates anything, and every dependency
// is looked up in the registry again right before its dependent starts.
// Both checks fail with a *config.ConfigurationError naming the two
// containers.
//
// Each container is registered as soon as it runs. When a stage fails, the
// registry holds exactly the containers that are running, which is what the
// platform manager tears down.
package starter
