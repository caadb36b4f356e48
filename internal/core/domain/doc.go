// Package domain defines the request/response model shared by the server
// and the command dispatcher.
//
//   - Response: a status, content type and body rendered as a literal
//     HTTP/1.1 message, plus the Shutdown marker for remote stop
//   - RequestError: classified request failures and their canned responses
package domain
