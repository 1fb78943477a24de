package reader

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"io/ioutil"
	"time"

	"github.com/achilleasa/polaris-bvh/asset"
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/log"
	"github.com/pkg/errors"
)

// Compiled scene archive entries.
const (
	MetadataFile   = "scene.gob"
	NodesFile      = "nodes.bin"
	IndicesFile    = "indices.bin"
	PrimitivesFile = "primitives.bin"
)

type zipSceneReader struct {
	logger log.Logger
}

// Create a new zip scene reader
func newZipSceneReader() *zipSceneReader {
	return &zipSceneReader{
		logger: log.New("zip reader"),
	}
}

// Read scene definition from zip file.
func (p *zipSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	p.logger.Noticef(`parsing compiled scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := ioutil.ReadAll(sceneRes)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "zipSceneReader: could not open %s", sceneRes.Path())
	}

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		switch f.Name {
		case MetadataFile, NodesFile, IndicesFile, PrimitivesFile:
		default:
			p.logger.Warningf("unknown file %s in scene zip file; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		entries[f.Name], err = ioutil.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "zipSceneReader: failed to load %s", f.Name)
		}
	}

	for _, name := range []string{MetadataFile, NodesFile, IndicesFile, PrimitivesFile} {
		if _, exists := entries[name]; !exists {
			return nil, errors.Errorf("zipSceneReader: missing %s in scene zip file", name)
		}
	}

	sc := &scene.Scene{}
	if err = gob.NewDecoder(bytes.NewReader(entries[MetadataFile])).Decode(sc); err != nil {
		return nil, errors.Wrapf(err, "zipSceneReader: failed to load %s", MetadataFile)
	}
	if sc.BvhNodeList, err = scene.DecodeNodes(entries[NodesFile]); err != nil {
		return nil, errors.Wrapf(err, "zipSceneReader: failed to load %s", NodesFile)
	}
	if sc.IndexList, err = scene.DecodeIndices(entries[IndicesFile]); err != nil {
		return nil, errors.Wrapf(err, "zipSceneReader: failed to load %s", IndicesFile)
	}
	if sc.PrimitiveList, err = scene.DecodePrimitives(entries[PrimitivesFile]); err != nil {
		return nil, errors.Wrapf(err, "zipSceneReader: failed to load %s", PrimitivesFile)
	}

	if len(sc.IndexList) != len(sc.PrimitiveList) {
		return nil, errors.Errorf("zipSceneReader: index list has %d entries; expected %d", len(sc.IndexList), len(sc.PrimitiveList))
	}

	p.logger.Noticef("loaded scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}
