// Package auditlog writes one entry per answered request to size-rotated
// text files.
//
// Layout:
//
//	<dir>/server_log_000.txt
//	<dir>/server_log_001.txt
//	...
//
// Entry format (all timestamps UTC):
//
//	[2025-01-02 15:04:05.123] 192.0.2.10:51514 200 3ms
//	[2025-01-02 15:04:05.123]   GET /add/2/3 HTTP/1.1
//	[2025-01-02 15:04:05.123]   Host: localhost:8443
//
// Only the first MaxRequestLines request lines are kept. A file is rotated
// once it has reached MaxFileSize; the check happens before each entry, so
// a file can exceed the cap by at most one entry.
package auditlog
