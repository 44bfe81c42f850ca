// Package domain defines the core business entities for the pCloud client.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Account: One pCloud identity with its credential and quota facts
//   - Entry: An item of a folder listing
//   - UploadResult / SearchMatch: Operation outcomes annotated with the
//     account that produced them
//   - The error taxonomy (AuthError, APIError, TransportError, ...)
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
