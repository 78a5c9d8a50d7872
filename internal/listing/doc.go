// Package listing normalizes item text for marketplace payloads: title
// casing, SKU sanitization, and keyword derivation.
package listing
