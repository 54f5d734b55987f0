// Package core provides the business logic for record import and export.
//
// This package is independent of any transport: the HTTP server and the CLI
// both drive the same [Service].
//
// # Kind Registry
//
// Kinds are registered at init time using [Register]. Each [KindDefinition]
// contains everything needed to move one kind in and out of the store:
//
//	core.Register(core.KindDefinition{
//	    Info:       core.KindInfo{Kind: domain.KindValue, Columns: valueColumns},
//	    FromFields: valueFromFields,
//	    ToFields:   valueToFields,
//	    FromObject: valueFromObject,
//	    ToObject:   valueToObject,
//	    Transform:  valueTransform,
//	    Create:     valueCreate,
//	    FetchAll:   valueFetchAll,
//	})
//
// The definitions live in the kinds sub-package; import it for its side
// effect wherever a Service is built.
//
// # Import
//
// Import has two explicit phases:
//
//  1. [Service.Preview] decodes the source (csv or json), maps every row to
//     a record and classifies it with the [Validator]. Nothing is written.
//     A format or mapping error fails the whole preview.
//  2. [Service.Confirm] commits the records marked ShouldImport, in order,
//     one atomic creation per record. Failures become [FailedRecord] entries
//     and never abort the batch.
//
// [Service.StartPreview] and [Service.ConfirmPreview] hold a preview between
// the two phases for clients that confirm in a separate request.
//
// # Export
//
// [Service.Export] reads every record of a kind and writes it in either
// format. Exported files import back to equal records.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a code prefix for support reference:
//
//   - FMT: malformed files
//   - MAP: values that do not map to a record
//   - IMP: import workflow errors
//   - DB: store errors
package core
