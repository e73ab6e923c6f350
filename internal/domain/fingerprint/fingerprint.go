// Package fingerprint derives stable cache keys from analyzed content.
//
// Code is normalized before hashing so cosmetic edits (trailing whitespace,
// runs of blank lines) share a key. Issue text is hashed verbatim. The scorer
// version is part of the hash, so bumping it makes old cache entries
// unreachable without any migration. Code keys also carry the language, since
// the same bytes parse differently under different grammars.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/okian/gitstart/internal/domain/model"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// domainTag separates this hash family from any other sha256 use.
const domainTag = "gitstart.fingerprint.v1"

// Compute returns the fingerprint for content of the given kind. The language
// is hashed for code only and is compared case-insensitively.
func Compute(content []byte, kind model.Kind, language, scorerVersion string) (model.Fingerprint, error) {
	const op = "fingerprint.compute"
	if !kind.Valid() {
		return "", model.NewKind(op, model.ErrInvalidInput)
	}

	var payload []byte
	switch kind {
	case model.KindCode:
		payload = NormalizeCode(content)
	default:
		if len(bytes.TrimSpace(content)) > 0 {
			payload = content
		}
	}
	if len(payload) == 0 {
		return "", model.NewKind(op, model.ErrInvalidInput)
	}

	h := sha256.New()
	writeField(h, []byte(domainTag))
	writeField(h, []byte(kind))
	writeField(h, []byte(scorerVersion))
	if kind == model.KindCode {
		writeField(h, []byte(strings.ToLower(strings.TrimSpace(language))))
	}
	h.Write(payload)
	return model.Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}

// ForSubject fingerprints a pipeline subject.
func ForSubject(s model.Subject, scorerVersion string) (model.Fingerprint, error) {
	return Compute(s.Content, s.Kind, s.Language, scorerVersion)
}

// writeField writes a length-prefixed field so adjacent fields cannot collide.
func writeField(h interface{ Write([]byte) (int, error) }, b []byte) {
	var n [4]byte
	l := len(b)
	n[0], n[1], n[2], n[3] = byte(l>>24), byte(l>>16), byte(l>>8), byte(l)
	_, _ = h.Write(n[:])
	_, _ = h.Write(b)
}

// NormalizeCode strips trailing whitespace from every line, collapses runs of
// blank lines into one, and drops leading and trailing blank lines. The
// result uses "\n" line endings.
func NormalizeCode(content []byte) []byte {
	lines := bytes.Split(content, []byte("\n"))
	out := make([]byte, 0, len(content))
	blank := false
	started := false
	for _, line := range lines {
		line = bytes.TrimRight(line, " \t\r\f\v")
		if len(line) == 0 {
			if started {
				blank = true
			}
			continue
		}
		if started {
			out = append(out, '\n')
			if blank {
				out = append(out, '\n')
			}
		}
		out = append(out, line...)
		started = true
		blank = false
	}
	return out
}

// Parse validates a fingerprint received from outside, such as a URL path.
func Parse(s string) (model.Fingerprint, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != Size {
		return "", model.NewKind("fingerprint.parse", model.ErrInvalidInput)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", model.WrapKind("fingerprint.parse", model.ErrInvalidInput, err)
	}
	return model.Fingerprint(s), nil
}
