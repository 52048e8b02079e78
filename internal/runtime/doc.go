// Package runtime provides the execution context for sarathi commands.
//
// It encapsulates shared dependencies needed by actions: configuration,
// the logger, the usage tracker, the history store and the project root.
package runtime
