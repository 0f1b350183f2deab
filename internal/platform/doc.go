// Package platform is the facade test code and the CLI use to run a
// platform.
//
// A Manager resolves the effective configuration (an explicit
// configuration wins over a validated integration-tests.json file, which
// wins over config.Default), creates an isolated network, verifies every
// image once and then hands over to the starter, the importer and the
// health checker:
//
//	m := platform.New(platform.Options{Runtime: rt, Logger: logger})
//	if err := m.Start(ctx, nil); err != nil {
//		_ = m.Stop(ctx)
//		return err
//	}
//	defer m.Stop(ctx)
//
//	results, err := m.WaitUntilHealthy(ctx, 2*time.Minute, time.Second)
//
// A Manager starts once. Stop is idempotent and best effort: containers are
// stopped in reverse registration order, failures are logged and teardown
// carries on.
package platform
