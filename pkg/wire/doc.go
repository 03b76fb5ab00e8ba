// Package wire converts between the loosely-typed payloads returned by the
// remote API and the typed values of package models.
//
// Every model type declares an explicit Schema listing the wire keys it owns.
// Create projects a payload onto that schema, failing with a
// *MissingFieldError when a required key is absent, and decodes the projected
// payload into the target type. AsDict performs the inverse, honouring any
// json.Marshaler a type provides for a wire layout that differs from its
// fields.
//
// Basic usage:
//
//	var candidateSchema = wire.NewSchema("Candidate",
//		wire.Required("width"),
//		wire.Required("height"),
//		wire.Required("url"),
//	)
//
//	c, err := wire.Create[Candidate](payload, candidateSchema)
//	if err != nil {
//		var missing *wire.MissingFieldError
//		if errors.As(err, &missing) {
//			// missing.Field names the absent key
//		}
//	}
//
// Lookup walks dotted paths ("inbox.oldest_cursor") and reports absence
// instead of failing when any segment is missing.
package wire
