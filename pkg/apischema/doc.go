/*
Package apischema loads the backend's OpenAPI document and slices it into
minimal per-operation fragments.

The hosted agent platform accepts one OpenAPI tool per operation, so the full
document is cut down to a single path entry while shared component schemas are
preserved. Slicing is a pure function over its inputs.
*/
package apischema
