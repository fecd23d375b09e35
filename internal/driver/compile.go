package driver

import (
	"bytes"
	"context"
)

// Result is the outcome of compiling one entry file. Context is set as soon
// as the builtins module preloaded, so diagnostics of a failed compilation
// can be rendered against its file set.
type Result struct {
	Context *Context
	Entry   *Module
}

// Compile compiles the file at path and every module it imports.
func Compile(ctx context.Context, path string, opts Options) (*Result, error) {
	ref, err := EntryRef(path)
	if err != nil {
		return nil, err
	}
	c, err := NewContext(ctx, EntryDir(ref), opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Context: c}
	m, err := c.Compile(ref)
	if err != nil {
		return res, err
	}
	res.Entry = m
	return res, nil
}

// Build compiles path and returns the encoded artifact. When cache is not
// nil a fresh cached artifact is returned without compiling, and a new one
// is stored after a successful compilation.
func Build(ctx context.Context, path string, opts Options, cache *DiskCache) ([]byte, *Result, error) {
	ref, err := EntryRef(path)
	if err != nil {
		return nil, nil, err
	}
	key := CacheKey(ref.File, opts.LibStd)
	var payload DiskPayload
	if ok, err := cache.Get(key, &payload); err == nil && ok && payload.Fresh() {
		return payload.Artifact, nil, nil
	}
	res, err := Compile(ctx, path, opts)
	if err != nil {
		return nil, res, err
	}
	art, err := res.Context.BuildArtifact(res.Entry)
	if err != nil {
		return nil, res, err
	}
	var buf bytes.Buffer
	if err := art.Encode(&buf); err != nil {
		return nil, res, err
	}
	if cache != nil {
		files, hashes, err := res.Context.Inputs()
		if err == nil {
			// a failed cache write only costs the next build its shortcut
			_ = cache.Put(key, &DiskPayload{
				Entry:      ref.File,
				FilePaths:  files,
				FileHashes: hashes,
				Roots:      res.Context.search.Roots,
				Imports:    res.Context.Imports(),
				Artifact:   buf.Bytes(),
			})
		}
	}
	return buf.Bytes(), res, nil
}
