/*
Package cli provides command-line interface utilities for Janus.

The cli package includes output formatters and common CLI helpers used by
the janus command.

Output Formatting:

The cli package supports text, JSON, and table output for displaying
command results:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
