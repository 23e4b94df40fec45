// Package generation provides interfaces and error types for interacting
// with external AI/LLM services for newsletter content generation. It
// abstracts the details of LLM API integration (Gemini), allowing the
// application to summarize task activity and compose bulletins without
// coupling to specific external services.
package generation
