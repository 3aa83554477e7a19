/*
Package markup provides safe construction and composition of HTML/XML
fragments. It distinguishes already-escaped text from raw text at the
type level: the Markup type is the safety tag, and every operation that
combines a Markup value with plain data escapes the plain side first.

The package is a leaf library with no internal state. All values are
immutable and every operation returns a new value, so concurrent use
needs no coordination.

Typical use is through Escape for untrusted input, New for trusted
literals, and the Markup methods (Append, Format, Join, Split, ...)
for composition. Values can opt into supplying their own trusted
rendering by implementing HTMLer.
*/
package markup
