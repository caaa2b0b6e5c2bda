// Package wrap provides a Go SDK for running external processes with
// concurrent I/O streaming, timeouts, cancellation and retries.
//
// # Quick Start
//
// Build an immutable command and run it:
//
//	out := wrap.NewBufferSink()
//	cmd := wrap.NewCommand("git", "status").
//	    WithWorkDir("/repo").
//	    WithTimeout(10 * time.Second).
//	    WithStdout(out)
//
//	result, err := wrap.Run(ctx, cmd)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.ExitCode, out.String())
//
// Commands are immutable values: every With* method returns a new
// independent command, the original stays runnable unchanged.
//
// # Streams
//
// Output sinks decide where process output goes: [Discard], [NewBufferSink]
// (thread-safe, can receive stdout and stderr at once through
// [Command.WithMergedOutput]), [NewLineSink] for per-line callbacks,
// [NewWriterSink] and [NewFileSink]. Input sources feed stdin:
// [NewStringSource], [NewBytesSource], [NewReaderSource], [NewFileSource].
// Input and output always pump in parallel, so feeding multi-megabyte input
// to a chatty process cannot deadlock on full pipe buffers.
//
// # Failures
//
// Runs fail with [*LaunchError] when the process cannot start,
// [*TimeoutError] when the configured timeout fires (the whole process tree
// is killed first), the context's error on caller cancellation, and
// [*ExitError] for validated non-zero exits.
//
// # Retries
//
// Run a command under a retry policy:
//
//	policy := wrap.ExponentialRetryPolicy(5, time.Second)
//	policy.RetryOnExitCode = func(code int) bool { return code != 2 }
//
//	result, err := wrap.RunWithRetry(ctx, cmd, policy)
//
// Timeouts and cancellations are never retried. The last observed failure
// is returned when attempts run out.
package wrap
