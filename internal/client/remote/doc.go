// Package remote is the HTTP client for the tracker API.
//
// Every resource follows the same REST shape:
//
//	POST   /api/{resource}              create, body = payload + userId + clientId
//	PUT    /api/{resource}/{serverId}   update
//	DELETE /api/{resource}/{serverId}   delete
//	GET    /api/{resource}?userId=...   list an owner's records
//	GET    /api/health                  liveness probe
//
// Responses are wrapped in an envelope {success, message, data}. Failures are
// reported as *StatusError values that unwrap to one of the package sentinel
// errors, so callers branch with errors.Is:
//
//	ErrUnavailable   transport failure, timeout, 5xx, 408, 429
//	ErrUnauthorized  401, 403
//	ErrNotFound      404
//	ErrRejected      any other 4xx, or success=false
//	ErrMalformed     body could not be decoded or carried no id
package remote
