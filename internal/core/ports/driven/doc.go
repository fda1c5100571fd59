// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingProvider: Generates vectors for chunks and queries
//   - VectorIndex: In-memory chunk and vector storage
//   - Chunker: Splits text into overlapping chunks
//   - Ranker: Scores and orders candidate chunks
//   - ConfigStore: Application configuration
//   - AIConfigValidator: Provider connectivity checks
//   - Normaliser: Text extraction from markup and office formats
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or driving package
package driven
