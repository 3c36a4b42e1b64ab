// Package structured recovers a JSON object from free-form model output.
//
// Language models asked for JSON frequently wrap it in markdown fences,
// surround it with prose, or leave trailing commas behind. [Parse] applies a
// fixed sequence of recovery steps and either returns the decoded object or a
// [*ParseError] carrying a bounded snippet of the offending text.
//
// Only JSON objects are accepted. Arrays and scalars are rejected even when
// they are valid JSON. Numbers decode to json.Number, and the trailing-comma
// repair leaves the contents of string literals alone.
//
// A recovered object can be checked against a JSON Schema with [Schema];
// violations come back as a [*SchemaError] listing each failing location.
package structured
