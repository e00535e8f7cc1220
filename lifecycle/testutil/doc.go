// Package testutil provides a recording run listener for lifecycle tests.
package testutil
