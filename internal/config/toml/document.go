package toml

import (
	"crypto/sha256"
	"io/fs"
	"time"
)

// Document is a parsed configuration source: a root table plus where it
// came from and what the file looked like when it was read.
type Document struct {
	Root *Table
	// Origin is the file path, empty for documents built in memory.
	Origin string
	// Fingerprint is captured by the loader at read time.
	Fingerprint Fingerprint
}

// NewDocument returns an empty in-memory document.
func NewDocument() *Document {
	return &Document{Root: NewTable()}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{Root: d.Root.Clone(), Origin: d.Origin, Fingerprint: d.Fingerprint}
}

// Fingerprint summarizes a file cheaply enough to be recomputed on every
// poll. Size and modification time come from stat; Sum is the content hash
// recorded after a full read.
type Fingerprint struct {
	Exists  bool
	Size    int64
	ModTime time.Time
	Sum     [sha256.Size]byte
}

// StatFingerprint builds a fingerprint from file metadata. A nil info means
// the file does not exist.
func StatFingerprint(info fs.FileInfo) Fingerprint {
	if info == nil {
		return Fingerprint{}
	}
	return Fingerprint{Exists: true, Size: info.Size(), ModTime: info.ModTime()}
}

// WithContent returns f with Sum set to the hash of data.
func (f Fingerprint) WithContent(data []byte) Fingerprint {
	f.Sum = sha256.Sum256(data)
	return f
}

// Equal compares the stat part of two fingerprints.
func (f Fingerprint) Equal(o Fingerprint) bool {
	return f.Exists == o.Exists && f.Size == o.Size && f.ModTime.Equal(o.ModTime)
}

// SameContent reports whether both fingerprints carry a content hash and
// the hashes match.
func (f Fingerprint) SameContent(o Fingerprint) bool {
	var zero [sha256.Size]byte
	return f.Sum != zero && f.Sum == o.Sum
}
