// Package llm talks to OpenAI-compatible chat-completion endpoints.
//
// Client performs single requests with retries, in either synchronous or
// server-sent-event streaming mode. Engine builds on it to run a conversation
// in which the model may call tools; tool results are fed back until the model
// answers in plain text or the iteration limit is reached. UsageTracker keeps
// token and timing totals for every call made in the process.
package llm
