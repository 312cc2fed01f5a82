// Package response turns a parsed request plus an optional handler result
// into HTTP/1.1 response bytes.
//
// A response is built through an implicit progression: the content type is
// resolved from the request path, the content type picks the base storage
// directory, the content is loaded, headers are assembled, and the final
// bytes are emitted. Routes registered in the API table short-circuit that
// progression and shape the handler result into JSON directly.
//
// Canned error responses carry fixed literal bodies whose Content-Length
// values are byte-exact; any change to a body text must update its length
// in lockstep.
package response
