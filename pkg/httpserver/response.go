package httpserver

import "strconv"

// serverHeader is the fixed Server response header value
const serverHeader = "authd"

// response is a status code plus an optional JSON body
type response struct {
	status int
	body   []byte
}

func status(code int) response {
	return response{status: code}
}

func jsonResponse(code int, body []byte) response {
	return response{status: code, body: body}
}

func reasonPhrase(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 202:
		return "Accepted"
	case 204:
		return "No Content"
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 409:
		return "Conflict"
	case 413:
		return "Payload Too Large"
	case 431:
		return "Request Header Fields Too Large"
	}
	return "Internal Server Error"
}

// appendResponse serializes r into dst. The shape is fixed: status line,
// Server, Connection: keep-alive, Content-Length, optional Content-Type,
// blank line, body. Always well-formed so the client's byte stream stays
// aligned for the next request.
func appendResponse(dst []byte, r response) []byte {
	dst = append(dst, "HTTP/1.1 "...)
	dst = strconv.AppendInt(dst, int64(r.status), 10)
	dst = append(dst, ' ')
	dst = append(dst, reasonPhrase(r.status)...)
	dst = append(dst, "\r\nServer: "...)
	dst = append(dst, serverHeader...)
	dst = append(dst, "\r\nConnection: keep-alive\r\nContent-Length: "...)
	dst = strconv.AppendInt(dst, int64(len(r.body)), 10)
	dst = append(dst, "\r\n"...)
	if len(r.body) > 0 {
		dst = append(dst, "Content-Type: application/json\r\n"...)
	}
	dst = append(dst, "\r\n"...)
	dst = append(dst, r.body...)
	return dst
}
