// Package cli defines the sarathi cobra command tree. Commands parse flags
// and hand off to the actions package with a runtime context.
package cli
