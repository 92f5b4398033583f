// Package process runs the shell commands bound to :exec and :group.
//
// Commands are fire-and-forget. Each one runs as "sh -c <command line>"
// in a new session, detached from the daemon's terminal, with standard
// input and output connected to the null device. The Supervisor reaps
// every child so none are left as zombies, and records exit codes for
// debug logging. Shutting the supervisor down stops new spawns but
// leaves running commands alone: a terminal started from a chain must
// outlive the daemon.
//
//	supervisor := process.NewSupervisor(process.WithLogger(logger))
//	defer supervisor.Shutdown()
//
//	if err := supervisor.Spawn("xterm -e htop"); err != nil {
//	    logger.Warn("spawn: %v", err)
//	}
package process
