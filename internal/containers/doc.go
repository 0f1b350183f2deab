// Package containers contains the container kinds the platform is made of.
//
// Every kind is configured by a plain spec struct and started with Start,
// which returns a typed started handle:
//
//   - PostgresSpec / StartedPostgres: the shared database server. It is
//     probed by running pg_isready inside the container and provisions the
//     databases of the other kinds through a Provisioner.
//   - KeycloakSpec / StartedKeycloak: the identity provider. Needs Postgres.
//   - ServiceSpec / StartedService: a database-backed backend service.
//   - GatewaySpec / StartedGateway: the backend-for-frontend. Needs the
//     identity provider.
//   - UISpec / StartedUI: the UI shell. Needs the gateway and is never
//     probed.
//   - ImportRunnerSpec / StartedImportRunner: the short-lived data import
//     container.
//   - GenericSpec / StartedGeneric: a user-declared container without a
//     database.
//
// Start applies the same steps for every kind. The built-in wait strategy
// is installed unless the spec carries a different one, caller environment
// is merged over the computed environment, and the container is attached to
// the platform network under its alias. Started handles implement
// registry.Handle and healthcheck.Checkable.
//
// The built-in backend services and their dependencies are listed in the
// catalog (see Builtin and Builtins).
package containers
