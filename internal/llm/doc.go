// Package llm classifies staged transactions with a hosted language model.
// OpenAI, Anthropic and Gemini are supported; every provider is asked for a
// JSON document that is validated strictly before any row is trusted.
package llm
