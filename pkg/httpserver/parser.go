package httpserver

import (
	"bytes"
	"errors"
	"net/netip"
	"strconv"
	"strings"
)

const (
	// maxHeaderLines bounds the header count the parser will accept
	maxHeaderLines = 32
	// maxForwardedForLen bounds the x-forwarded-for value; anything
	// longer cannot be a dotted quad and is treated as absent
	maxForwardedForLen = 46
	// maxAPIKeyLen bounds the x-api-key value
	maxAPIKeyLen = 512
)

var (
	// errIncomplete means more bytes are needed before the header block
	// can be parsed; the caller keeps reading
	errIncomplete = errors.New("incomplete request head")
	// errMalformed means the byte stream is not a parsable request;
	// the connection is torn down without a response
	errMalformed = errors.New("malformed request head")
	// errTooManyHeaders means the header line bound was exceeded
	errTooManyHeaders = errors.New("too many header lines")
)

var headSeparator = []byte("\r\n\r\n")

// requestHead holds everything extracted from a request line and header
// block: routing inputs, body length, and the two recognized auth headers.
type requestHead struct {
	method string
	path   string

	// headerLen is the byte length of the head including the blank line;
	// the body starts at this offset in the connection buffer.
	headerLen int

	// contentLength defaults to 0 when the header is absent or unparsable
	contentLength int

	clientIP    netip.Addr
	hasClientIP bool

	apiKey          string
	apiKeyOversized bool
}

// parseHead incrementally parses a request head out of buf. It returns
// errIncomplete until the terminating blank line has been buffered, and
// errMalformed for anything that is not a clean HTTP/1.1-style head.
// Header bytes are explicitly validated as printable ASCII before any
// string use; nothing is reinterpreted on trust.
func parseHead(buf []byte) (*requestHead, error) {
	end := bytes.Index(buf, headSeparator)
	if end < 0 {
		return nil, errIncomplete
	}

	headBytes := buf[:end]
	if err := validateHeadBytes(headBytes); err != nil {
		return nil, err
	}

	lines := strings.Split(string(headBytes), "\r\n")
	if len(lines)-1 > maxHeaderLines {
		return nil, errTooManyHeaders
	}

	head := &requestHead{headerLen: end + len(headSeparator)}
	if err := parseRequestLine(lines[0], head); err != nil {
		return nil, err
	}

	for _, line := range lines[1:] {
		name, value, err := splitHeaderLine(line)
		if err != nil {
			return nil, err
		}

		// Names are matched case-insensitively against the full header
		// name; there is no truncating comparison window.
		switch {
		case strings.EqualFold(name, "content-length"):
			if n, err := strconv.Atoi(value); err == nil && n >= 0 {
				head.contentLength = n
			}
		case strings.EqualFold(name, "x-forwarded-for"):
			if len(value) <= maxForwardedForLen {
				if ip, err := netip.ParseAddr(value); err == nil && ip.Is4() {
					head.clientIP = ip
					head.hasClientIP = true
				}
			}
		case strings.EqualFold(name, "x-api-key"):
			if len(value) > maxAPIKeyLen {
				head.apiKeyOversized = true
			} else {
				head.apiKey = value
			}
		}
	}

	return head, nil
}

// validateHeadBytes rejects any byte outside printable ASCII plus CR/LF
func validateHeadBytes(head []byte) error {
	for _, b := range head {
		if (b < 0x20 || b > 0x7e) && b != '\r' && b != '\n' {
			return errMalformed
		}
	}
	return nil
}

func parseRequestLine(line string, head *requestHead) error {
	method, rest, ok := strings.Cut(line, " ")
	if !ok || method == "" {
		return errMalformed
	}
	path, version, ok := strings.Cut(rest, " ")
	if !ok || !strings.HasPrefix(path, "/") {
		return errMalformed
	}
	if version != "HTTP/1.1" && version != "HTTP/1.0" {
		return errMalformed
	}

	for i := 0; i < len(method); i++ {
		if method[i] < 'A' || method[i] > 'Z' {
			return errMalformed
		}
	}

	head.method = method
	head.path = path
	return nil
}

// splitHeaderLine splits "Name: value", requiring a well-formed ASCII
// token name. Over-long or exotic names are a parse error rather than a
// silently skipped line, so a mangled head never half-matches.
func splitHeaderLine(line string) (string, string, error) {
	name, value, ok := strings.Cut(line, ":")
	if !ok || name == "" {
		return "", "", errMalformed
	}
	for i := 0; i < len(name); i++ {
		if !isTokenChar(name[i]) {
			return "", "", errMalformed
		}
	}
	return name, strings.Trim(value, " \t"), nil
}

// isTokenChar reports whether c may appear in an HTTP header field name
func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '!' || c == '#' || c == '$' || c == '%' || c == '&' ||
		c == '\'' || c == '*' || c == '+' || c == '-' || c == '.' ||
		c == '^' || c == '_' || c == '`' || c == '|' || c == '~':
		return true
	}
	return false
}
