package driver

import (
	"crypto/sha256"
	"os"

	"monty/internal/interp"
)

// Digest is a SHA-256 hash.
type Digest [sha256.Size]byte

// combineDigest: H(content || dep1 || dep2 ...). deps must already be in a
// deterministic order.
func combineDigest(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func hashBytes(b []byte) Digest { return sha256.Sum256(b) }

// hashFile hashes the raw bytes of a file on disk.
func hashFile(path string) (Digest, error) {
	// #nosec G304 -- path comes from module search
	b, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, err
	}
	return hashBytes(b), nil
}

// CacheKey identifies a build: the entry file, the library root and the
// compiler's builtins module.
func CacheKey(entry, libstd string) Digest {
	return combineDigest(hashBytes([]byte(entry)), hashBytes([]byte(libstd)), hashBytes(interp.BuiltinsSource()))
}

// Inputs returns the files the compilation read, in completion order, with
// the hashes of their raw content.
func (c *Context) Inputs() ([]string, []Digest, error) {
	paths := make([]string, 0, len(c.order))
	hashes := make([]Digest, 0, len(c.order))
	for _, m := range c.order {
		d, err := hashFile(m.Ref.File)
		if err != nil {
			return nil, nil, err
		}
		paths = append(paths, m.Ref.File)
		hashes = append(hashes, d)
	}
	return paths, hashes, nil
}
