// Package providers implements the Reviewer interface for each supported LLM
// provider.
//
// Supported providers: Anthropic (Claude, via the official SDK), OpenAI
// (GPT), Google (Gemini), and Ollama / LMStudio for local models.
//
// All providers share a common retry helper with exponential back-off for
// rate limits and server errors; authentication failures are never retried.
// Credentials and base URLs are injected through [Options], with environment
// variable fallbacks, so tests can point providers at local httptest servers
// without making live API requests.
//
// Use [New] to obtain a Reviewer from an [Options] value.
package providers
