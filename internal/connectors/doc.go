// Package connectors provides document sources that feed the RAG index.
// Each connector knows how to turn a source's content into domain.Document
// values and keep the index in step with it.
package connectors
