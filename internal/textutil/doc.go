// Package textutil sanitizes client-supplied names before they reach the
// filesystem or a log line.
package textutil
