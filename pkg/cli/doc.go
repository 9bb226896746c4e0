/*
Package cli provides the command-line helpers used by the livesync command.

Output formatting:

Commands print text by default and JSON with --output json:

	format, err := cli.ParseFormat(output)
	...
	if format == cli.FormatJSON {
		return cli.WriteJSON(os.Stdout, records)
	}

Rendering:

A Renderer turns live snapshots, snapshot changes, and stored cycle history
into human-readable text with byte sizes, counts, and relative times:

	r := cli.NewRenderer(os.Stdout)
	sched.View(func(m *snapshot.Metrics) { r.Metrics(m) })

Signal handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
