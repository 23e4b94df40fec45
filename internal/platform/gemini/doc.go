// Package gemini implements the generation.Summarizer interface using
// Google's Gemini API. It handles prompt construction, transient-error
// retries with exponential backoff, and response parsing, and falls back to
// deterministic dry-run output when no API key is configured.
package gemini
