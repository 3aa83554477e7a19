/*
Package render provides a filesystem-based template engine built on top
of the markup package. Templates are plain text/template documents; all
escaping is explicit through the function map (escape, safe, join,
attr, ...), so values tagged safe by the markup package are emitted
verbatim and everything else is escaped exactly once.

The engine loads template sets from a directory, supports hot reloading
via Refresh, and enforces configurable safety limits on the amplifying
functions and on total output size.
*/
package render
