// Package proc launches and terminates local child processes.
//
// Full process-group termination is only guaranteed on Linux, where children
// are placed in their own process group and signals reach every member. On
// macOS the same mechanism is used on a best-effort basis. On Windows the
// Stop and Kill routines in stop_windows.go send an interrupt and, if
// necessary, terminate only the top-level process; grandchildren may remain
// running and must be cleaned up by the commands themselves.
package proc
