// Package ollama provides an embedding provider for the native Ollama API.
//
// Ollama also serves an OpenAI-compatible /v1 endpoint (see ai/openai); this
// package talks to /api/embed directly, which some deployments expose without
// the compatibility layer.
package ollama
