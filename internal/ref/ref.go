package ref

import (
	"strconv"
	"strings"
)

// Ref is a parsed "<uri>#<json-pointer>" reference.
type Ref struct {
	Raw      string
	URI      string
	Pointer  string   // "" addresses the package root
	Segments []string // decoded pointer segments
}

// Parse splits a reference into URI and decoded pointer segments.
// The pointer follows RFC 6901: it is empty or starts with "/", and
// "~1" / "~0" decode to "/" / "~".
func Parse(raw string) (Ref, error) {
	if raw == "" {
		return Ref{}, &MalformedError{Ref: raw, Reason: "empty reference"}
	}

	uri, pointer, found := strings.Cut(raw, "#")
	if !found {
		return Ref{}, &MalformedError{Ref: raw, Reason: "missing '#'"}
	}
	if uri == "" {
		return Ref{}, &MalformedError{Ref: raw, Reason: "missing uri"}
	}

	segs, err := splitPointer(pointer)
	if err != nil {
		return Ref{}, &MalformedError{Ref: raw, Reason: err.Error()}
	}

	return Ref{Raw: raw, URI: uri, Pointer: pointer, Segments: segs}, nil
}

// Format builds a reference from a URI and raw (unescaped) segments.
func Format(uri string, segments ...string) string {
	var b strings.Builder
	b.WriteString(uri)
	b.WriteByte('#')
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(escapeSegment(s))
	}
	return b.String()
}

// ObjectRef returns "<uri>#/objects/<index>", the positional address of an
// object in an instance or representation-instance package.
func ObjectRef(uri string, index int) string {
	return Format(uri, "objects", strconv.Itoa(index))
}

// ClassifierRef returns "<uri>#/classifiers/<index>".
func ClassifierRef(uri string, index int) string {
	return Format(uri, "classifiers", strconv.Itoa(index))
}

// RepresentationRef returns "<uri>#/representations/<index>".
func RepresentationRef(uri string, index int) string {
	return Format(uri, "representations", strconv.Itoa(index))
}

// ObjectIndex extracts <n> from "<uri>#/objects/<n>" and checks it against
// count. It is the fast path the engine uses for positional links.
func ObjectIndex(raw, uri string, count int) (int, error) {
	r, err := Parse(raw)
	if err != nil {
		return -1, err
	}
	if r.URI != uri {
		return -1, &MismatchError{Ref: raw, URI: r.URI, PackageURI: uri}
	}
	if len(r.Segments) != 2 || r.Segments[0] != "objects" {
		return -1, &DanglingError{Ref: raw, Segment: r.Pointer, Cause: CauseNotObjectPointer}
	}
	idx, ok := parseIndex(r.Segments[1])
	if !ok {
		return -1, &DanglingError{Ref: raw, Segment: r.Segments[1], Position: 1, Cause: CauseNotAnIndex}
	}
	if idx >= count {
		return -1, &DanglingError{
			Ref: raw, Segment: r.Segments[1], Position: 1, Cause: CauseIndexOutOfRange,
			Detail: "length " + strconv.Itoa(count),
		}
	}
	return idx, nil
}

func splitPointer(pointer string) ([]string, error) {
	if pointer == "" {
		return nil, nil
	}
	if pointer[0] != '/' {
		return nil, errPointerSyntax("pointer must start with '/'")
	}
	parts := strings.Split(pointer[1:], "/")
	for i, p := range parts {
		s, err := unescapeSegment(p)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return parts, nil
}

func unescapeSegment(s string) (string, error) {
	if !strings.Contains(s, "~") {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '~' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			return "", errPointerSyntax("dangling '~' escape")
		}
		switch s[i+1] {
		case '0':
			b.WriteByte('~')
		case '1':
			b.WriteByte('/')
		default:
			return "", errPointerSyntax("invalid escape '~" + string(s[i+1]) + "'")
		}
		i++
	}
	return b.String(), nil
}

func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// parseIndex accepts RFC 6901 array indices: "0" or digits without a
// leading zero.
func parseIndex(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

type errPointerSyntax string

func (e errPointerSyntax) Error() string { return string(e) }
