// Package dataset manages local dataset directories and their manifests.
//
// It creates workspace directories, locates previously downloaded dataset
// exports by project/version naming, and rewrites freshly downloaded
// manifests so their image-directory references point at absolute local
// paths instead of the provider's relative layout. Preparation is idempotent:
// a manifest with no remote URL lines is left byte-for-byte untouched.
package dataset
