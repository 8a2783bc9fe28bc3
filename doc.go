// Package goshape decodes sparse JSON objects into projections of a canonical
// record schema and merges them back into full records.
//
//   - A Registry introspects (or accepts declarations of) canonical schemas,
//     once per type.
//   - Each object's present member names are encoded as a Fingerprint; the
//     schema's ProjectionCache maps fingerprints to immutable Shapes, building
//     each Shape at most once even under concurrent first use.
//   - Decode walks the token stream of a pluggable JSON driver and returns
//     *Projection values holding exactly the members that were present.
//   - Merge copies a projection's fields into a struct or Record of the schema.
//
// Design policy:
//   - Keep only public APIs in the root package; put token-level code under internal/.
//   - Drivers live under source/, scalar conversions under codec/, declarative
//     schemas under schemafile/, and the CLI under cmd/goshape.
//
// Typical usage:
//
//	reg := goshape.NewRegistry()
//	s, err := goshape.SchemaOf[Address](reg)
//	vals, err := goshape.DecodeBytes(s, data)
//	err = s.Merge(vals[0], &addr)
package goshape
