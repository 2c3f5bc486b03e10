// Package constants provides application-wide constants and timeouts.
package constants

import "time"

const (
	// DefaultGracePeriod is how long Stop waits for a child to exit after a
	// graceful termination signal before force-killing it.
	DefaultGracePeriod = 2 * time.Second

	// ShutdownTimeout bounds the supervisor's own shutdown sequence across
	// all live agents.
	ShutdownTimeout = 15 * time.Second

	// StderrBufferLines is how many trailing stderr lines are retained per
	// agent for diagnostic context on abnormal exit.
	StderrBufferLines = 50

	// MaxLineBytes is the line-length cap for a single stdout record; lines
	// exceeding this are truncated and reported as an error event.
	MaxLineBytes = 1 << 20 // 1 MiB

	// TailerBufferLines is not referenced by the Tailer, which reads the
	// child's stdout through a 64 KiB bufio.Reader and appends each event
	// synchronously.
	TailerBufferLines = 64

	// InvalidLineReportEvery is how many dropped invalid-JSON lines
	// accumulate before a single error event is appended.
	InvalidLineReportEvery = 20

	// DefaultPoolSize is the default cap on concurrently running agents.
	DefaultPoolSize = 50
)
