package fasta

import (
	"crypto/md5"
	"encoding/hex"
	"unicode"
	"unicode/utf8"
)

// Sequence is one parsed FASTA record. It is immutable after construction.
type Sequence struct {
	Name     string
	Residues string
}

// Len is the residue count before any composition filtering.
func (s Sequence) Len() int { return utf8.RuneCountInString(s.Residues) }

// Digest is the MD5 of the raw residue bytes.
func (s Sequence) Digest() [md5.Size]byte { return md5.Sum([]byte(s.Residues)) }

// DigestHex is Digest as 32 lowercase hex characters.
func (s Sequence) DigestHex() string {
	d := s.Digest()
	return hex.EncodeToString(d[:])
}

// Composition counts residues case-insensitively (keys are uppercase).
// The stop/wildcard symbol '*' is not counted.
func (s Sequence) Composition() map[rune]int {
	comp := make(map[rune]int, 25)
	for _, r := range s.Residues {
		if r == '*' {
			continue
		}
		comp[unicode.ToUpper(r)]++
	}
	return comp
}
