// Package listing defines the record collected by the submission wizard: the
// chosen category and pricing tier, the listing title and description, and the
// staged file attachments, plus the step the wizard is currently on. Records
// are plain values; callers mutate them through Set so that unknown field names
// and mismatched value types surface as ErrInvalidArgument instead of being
// silently ignored. The catalog of selectable categories and packages lives
// alongside the record and is loaded from an embedded YAML document.
package listing
