// Package scm controls Windows services through the Service Control
// Manager. It only has an implementation on Windows.
package scm
