// Package attachments stages the files selected on the details step. It
// removes entries by index and derives one displayable preview per file,
// releasing the previous generation of previews every time a new one is
// acquired so that regenerating a fixed list never grows the number of live
// preview handles.
package attachments
