// Package testutil holds fixtures and helpers shared by the package tests.
// It must not import any other internal package so that in-package tests
// can use it without import cycles.
package testutil
