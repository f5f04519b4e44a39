package docstore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

const (
	VectorsFile  = "vectors.bin"
	ChunksFile   = "chunks.json"
	ManifestFile = "manifest.json"
)

const (
	vectorsMagic   = "RAGV"
	vectorsVersion = 1
)

// FileStore persists one index as three files in a directory: the packed
// vector block, the chunk metadata array and the build manifest. The three
// are written together and required together; an index missing any of them
// is broken, not half-usable.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Exists reports whether a persisted index is present. It stats the vector
// artifact only; Load still validates all three files.
func (fs *FileStore) Exists() bool {
	_, err := os.Stat(filepath.Join(fs.dir, VectorsFile))
	return err == nil
}

// Save writes all three artifacts, replacing any previous index. Artifacts
// are staged under temp names first and then renamed into place, so a reader
// never observes a partially written file.
func (fs *FileStore) Save(index *FlatIndex, chunks []Chunk, manifest Manifest) error {
	if index.Count() != len(chunks) {
		return fmt.Errorf("refusing to save %d chunks against %d vectors", len(chunks), index.Count())
	}

	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}

	chunksRaw, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}

	manifestRaw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	artifacts := []struct {
		name string
		data []byte
	}{
		{VectorsFile, encodeVectors(index)},
		{ChunksFile, chunksRaw},
		{ManifestFile, manifestRaw},
	}

	for _, a := range artifacts {
		if err := os.WriteFile(filepath.Join(fs.dir, a.name+".tmp"), a.data, 0o644); err != nil {
			return fmt.Errorf("failed to stage %s: %w", a.name, err)
		}
	}
	for _, a := range artifacts {
		path := filepath.Join(fs.dir, a.name)
		if err := os.Rename(path+".tmp", path); err != nil {
			return fmt.Errorf("failed to replace %s: %w", a.name, err)
		}
	}

	return nil
}

// Load reads a persisted index back. All three artifacts must be present and
// parseable, and the chunk array must line up with the vector block; errors
// name the artifact at fault so a broken index is distinguishable from an
// absent one.
func (fs *FileStore) Load() (*FlatIndex, []Chunk, Manifest, error) {
	var manifest Manifest

	vecRaw, err := os.ReadFile(filepath.Join(fs.dir, VectorsFile))
	if err != nil {
		return nil, nil, manifest, fmt.Errorf("failed to read %s: %w", VectorsFile, err)
	}
	index, err := decodeVectors(vecRaw)
	if err != nil {
		return nil, nil, manifest, fmt.Errorf("failed to decode %s: %w", VectorsFile, err)
	}

	chunksRaw, err := os.ReadFile(filepath.Join(fs.dir, ChunksFile))
	if err != nil {
		return nil, nil, manifest, fmt.Errorf("failed to read %s: %w", ChunksFile, err)
	}
	var chunks []Chunk
	if err := json.Unmarshal(chunksRaw, &chunks); err != nil {
		return nil, nil, manifest, fmt.Errorf("failed to decode %s: %w", ChunksFile, err)
	}

	manifestRaw, err := os.ReadFile(filepath.Join(fs.dir, ManifestFile))
	if err != nil {
		return nil, nil, manifest, fmt.Errorf("failed to read %s: %w", ManifestFile, err)
	}
	if err := json.Unmarshal(manifestRaw, &manifest); err != nil {
		return nil, nil, manifest, fmt.Errorf("failed to decode %s: %w", ManifestFile, err)
	}

	if index.Count() != len(chunks) {
		return nil, nil, manifest, fmt.Errorf("%s holds %d vectors but %s holds %d chunks",
			VectorsFile, index.Count(), ChunksFile, len(chunks))
	}

	return index, chunks, manifest, nil
}

func encodeVectors(index *FlatIndex) []byte {
	vectors := index.Vectors()

	buf := make([]byte, 0, 16+len(vectors)*index.Dim()*4)
	buf = append(buf, vectorsMagic...)
	buf = binary.LittleEndian.AppendUint32(buf, vectorsVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(index.Dim()))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(vectors)))

	for _, v := range vectors {
		for _, f := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}

	return buf
}

func decodeVectors(data []byte) (*FlatIndex, error) {
	if len(data) < 16 || string(data[:4]) != vectorsMagic {
		return nil, errors.New("not a vector index file")
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if version != vectorsVersion {
		return nil, fmt.Errorf("unsupported vector file version %d", version)
	}

	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	count := int(binary.LittleEndian.Uint32(data[12:16]))
	if dim < 1 {
		return nil, fmt.Errorf("invalid vector dimension %d", dim)
	}

	payload := data[16:]
	stride := int64(dim) * 4
	if int64(len(payload))%stride != 0 || int64(len(payload))/stride != int64(count) {
		return nil, fmt.Errorf("vector payload is %d bytes for %d vectors of dimension %d", len(payload), count, dim)
	}

	floats := make([]float32, len(payload)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}

	return &FlatIndex{dim: dim, data: floats}, nil
}
