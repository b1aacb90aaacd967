/*
Package dbtest spins up database containers for integration tests. It wraps
the testcontainers-go library with the defaults our tests share, so tests
that just need a working database do not repeat the container boilerplate.
Tests that need a customised database should use the testcontainers-go
modules directly.

Developing locally with Docker, you may want to inspect the database after a
test failure. To do this, set the Inspect flag:

	go test -dbtest.inspect

This package is intended for tests only.
*/
package dbtest
