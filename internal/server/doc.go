// Package server hosts actions over HTTP.
//
// Every enabled action is mounted under its base path:
//
//	POST <base>/interactions   signed interaction in, ActionResponse out
//	GET  <base>/metadata       static action metadata (CORS, ETag)
//
// plus two discovery endpoints, GET /healthz and GET /actions.
//
// # Request Flow
//
//  1. Body size checked (reject with 413 if too large)
//  2. Signature and timestamp headers read for the configured scheme
//  3. Request handed to the action's controller
//  4. Controller outcome written back: 400 or 401 with a generic
//     {"error": "..."} body, or 200 with the ActionResponse
//
// Request logs never include bodies or signatures.
package server
