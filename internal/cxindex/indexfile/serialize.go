package indexfile

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"ckb/internal/cxindex/model"
	"ckb/internal/cxindex/position"
)

// wireFile mirrors IndexFile's serialized fields in the declaration order of
// spec §3, deliberately excluding the non-serialized Diagnostics and
// FileContents (spec §3, §6: "diagnostics_ and file_contents are never
// serialized"). Fields are exported so both json and gob can see them.
type wireFile struct {
	Path                  string
	Args                  []string
	LastModificationTime  int64
	Language              string
	ImportFile            string
	SkippedByPreprocessor []position.Range
	Includes              []Include
	Dependencies          []string
	Types                 []model.IndexType
	Funcs                 []model.IndexFunc
	Vars                  []model.IndexVar
}

func (f *IndexFile) toWire() wireFile {
	return wireFile{
		Path:                  f.Path,
		Args:                  f.Args,
		LastModificationTime:  f.LastModificationTime,
		Language:              f.Language,
		ImportFile:            f.ImportFile,
		SkippedByPreprocessor: f.SkippedByPreprocessor,
		Includes:              f.Includes,
		Dependencies:          f.Dependencies,
		Types:                 f.Types,
		Funcs:                 f.Funcs,
		Vars:                  f.Vars,
	}
}

// fromWire rebuilds an IndexFile from a decoded wireFile, reconstructing the
// IdCache bijection from each entity's (Usr, Id) pair rather than
// serializing the cache itself — the cache is a derived index, not primary
// data.
func fromWire(w wireFile) *IndexFile {
	f := &IndexFile{
		idCache:               newIdCache(),
		Path:                  w.Path,
		Args:                  w.Args,
		LastModificationTime:  w.LastModificationTime,
		Language:              w.Language,
		ImportFile:            w.ImportFile,
		SkippedByPreprocessor: w.SkippedByPreprocessor,
		Includes:              w.Includes,
		Dependencies:          w.Dependencies,
		Types:                 w.Types,
		Funcs:                 w.Funcs,
		Vars:                  w.Vars,
	}
	for _, t := range f.Types {
		f.idCache.putType(t.Usr, t.Id)
	}
	for _, fn := range f.Funcs {
		f.idCache.putFunc(fn.Usr, fn.Id)
	}
	for _, v := range f.Vars {
		f.idCache.putVar(v.Usr, v.Id)
	}
	return f
}

// textualEnvelope carries the major version alongside the payload. The
// textual format tolerates unknown fields and defaults missing ones (it's
// plain encoding/json on an additive struct), per spec §6.
type textualEnvelope struct {
	MajorVersion int
	File         wireFile
}

// MarshalText renders f as the textual (JSON) cache format.
func (f *IndexFile) MarshalText() ([]byte, error) {
	env := textualEnvelope{MajorVersion: KMajorVersion, File: f.toWire()}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalText parses the textual cache format produced by MarshalText.
// Major-version mismatch is rejected; the textual format otherwise ignores
// unknown fields and defaults missing ones for free via encoding/json.
func UnmarshalText(data []byte) (*IndexFile, error) {
	var env textualEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("indexfile: decode textual cache: %w", err)
	}
	if env.MajorVersion != KMajorVersion {
		return nil, fmt.Errorf("indexfile: major version mismatch: have %d, want %d", env.MajorVersion, KMajorVersion)
	}
	return fromWire(env.File), nil
}

// compactEnvelope is the header of the compact binary format: both versions
// are checked, since minor-version changes are only meaningful for this
// format (spec §3, §6).
type compactEnvelope struct {
	MajorVersion int
	MinorVersion int
	File         wireFile
}

// MarshalCompact renders f as the compact (gob + zstd) binary cache format.
func (f *IndexFile) MarshalCompact() ([]byte, error) {
	env := compactEnvelope{MajorVersion: KMajorVersion, MinorVersion: KMinorVersion, File: f.toWire()}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(env); err != nil {
		return nil, fmt.Errorf("indexfile: encode compact cache: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("indexfile: create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw.Bytes(), nil), nil
}

// UnmarshalCompact parses the compact cache format produced by
// MarshalCompact. Both a major-version and, for this format only, a
// minor-version mismatch are rejected (spec §6).
func UnmarshalCompact(data []byte) (*IndexFile, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("indexfile: create zstd decoder: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("indexfile: decompress compact cache: %w", err)
	}

	var env compactEnvelope
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&env); err != nil {
		return nil, fmt.Errorf("indexfile: decode compact cache: %w", err)
	}
	if env.MajorVersion != KMajorVersion {
		return nil, fmt.Errorf("indexfile: major version mismatch: have %d, want %d", env.MajorVersion, KMajorVersion)
	}
	if env.MinorVersion != KMinorVersion {
		return nil, fmt.Errorf("indexfile: minor version mismatch: have %d, want %d", env.MinorVersion, KMinorVersion)
	}
	return fromWire(env.File), nil
}
