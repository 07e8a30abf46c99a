/*
Package daemon provides the long-running pieces of the janus run command.

The Scheduler triggers retention runs on a cron schedule, skipping a tick
when the previous run is still in flight. The ConfigWatcher watches the
configuration file for changes and triggers a debounced reload callback,
so rule or filter edits take effect without restarting the process.
*/
package daemon
