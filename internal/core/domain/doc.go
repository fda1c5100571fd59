// Package domain defines the core business entities for sercha-rag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Plain text handed to the indexer with filename and type
//   - Chunk: A retrievable span of a document with its embedding
//   - DocumentIndexEntry: The registry record for an indexed document
//   - SearchOptions / RankedResult: Query parameters and ranked hits
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
