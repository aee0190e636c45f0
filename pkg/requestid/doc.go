// Package requestid propagates X-Request-ID correlation identifiers.
//
// Middleware attaches an id to inbound requests of the local API, Transport
// stamps outbound REST calls, and LoggerExtractor adds the id to log records
// written with the request context.
package requestid
