package domain

import (
	"fmt"
	"net/http"
)

// Content types used by responses.
const (
	ContentTypeText = "text/plain"
	ContentTypeHTML = "text/html"
	ContentTypeJSON = "application/json"
)

// Response is a hand-assembled HTTP/1.1 response.
//
// Shutdown marks the remote stop command: no bytes are written for it and
// the server begins a graceful shutdown after auditing the request.
type Response struct {
	Status      int
	ContentType string
	Body        string
	Shutdown    bool
}

// Text returns a 200 text/plain response.
func Text(body string) Response {
	return Response{Status: http.StatusOK, ContentType: ContentTypeText, Body: body}
}

// JSON returns a 200 application/json response. body must already be JSON.
func JSON(body string) Response {
	return Response{Status: http.StatusOK, ContentType: ContentTypeJSON, Body: body}
}

// NotImplemented returns the fixed 501 page.
func NotImplemented() Response {
	return Response{
		Status:      http.StatusNotImplemented,
		ContentType: ContentTypeHTML,
		Body:        "<html><body><h1>501 Not Implemented</h1></body></html>",
	}
}

// BadRequest returns the fixed 400 page sent for short requests.
func BadRequest() Response {
	return Response{
		Status:      http.StatusBadRequest,
		ContentType: ContentTypeHTML,
		Body:        "<html><body><h1>400 Bad Request</h1></body></html>",
	}
}

// ShutdownRequest returns the remote stop marker.
func ShutdownRequest() Response {
	return Response{Status: http.StatusOK, Shutdown: true}
}

// StatusLine returns e.g. "HTTP/1.1 200 OK".
func (r Response) StatusLine() string {
	return fmt.Sprintf("HTTP/1.1 %d %s", r.Status, http.StatusText(r.Status))
}

// Bytes renders the status line, the Content-Type header and the body.
// A shutdown marker renders as nothing.
func (r Response) Bytes() []byte {
	if r.Shutdown {
		return nil
	}
	return []byte(r.StatusLine() + "\r\nContent-Type: " + r.ContentType + "\r\n\r\n" + r.Body)
}
