// Package schema provides declarative validation of request bodies and
// query parameters for the request guard.
//
// A Schema maps field names to rules (presence, type, length, range,
// pattern, enum). Validation never fails fast: every broken rule is
// collected into a FieldErrors value so a client sees all problems in one
// 400 response.
package schema
