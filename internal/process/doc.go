// Package process groups and terminates external worker processes.
package process
