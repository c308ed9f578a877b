// File: internal/interfaces/address_translation.go
package interfaces

import "github.com/deploymenttheory/go-refs/internal/types"

// AddressTranslator converts virtual cluster numbers into physical cluster numbers
type AddressTranslator interface {
	// Translate converts a single virtual LCN
	Translate(lcn uint64) (uint64, error)

	// TranslateTuple converts each non-zero entry of a tuple independently. Zero and unresolvable
	// entries stay zero; it fails only when no non-zero entry resolves.
	TranslateTuple(tuple types.LCNTuple) (types.LCNTuple, error)
}

// ObjectLocator resolves object identifiers to the root page of the object
type ObjectLocator interface {
	// Lookup returns the object table record for id
	Lookup(id types.ObjectID) (*types.ObjectRecord, error)
}
