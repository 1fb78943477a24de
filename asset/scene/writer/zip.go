package writer

import (
	"archive/zip"
	"encoding/gob"
	"os"
	"time"

	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/asset/scene/reader"
	"github.com/achilleasa/polaris-bvh/log"
	"github.com/pkg/errors"
)

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip writer"),
		sceneFile: sceneFile,
	}
}

// Write scene definition to zip file. Node, index and primitive lists are
// stored as GPU buffers; the remaining scene fields are gob-encoded.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	w.logger.Noticef("writing compressed scene to %s", w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	zw := zip.NewWriter(zipFile)

	// Write scene metadata
	cw, err := zw.Create(reader.MetadataFile)
	if err != nil {
		return err
	}
	metadata := scene.Scene{
		Name:      sc.Name,
		BuildInfo: sc.BuildInfo,
	}
	if err = gob.NewEncoder(cw).Encode(&metadata); err != nil {
		return errors.Wrapf(err, "zipSceneWriter: failed to encode %s", reader.MetadataFile)
	}

	// Write GPU buffers
	buffers := []struct {
		name string
		data []byte
	}{
		{reader.NodesFile, scene.EncodeNodes(sc.BvhNodeList)},
		{reader.IndicesFile, scene.EncodeIndices(sc.IndexList)},
		{reader.PrimitivesFile, scene.EncodePrimitives(sc.PrimitiveList)},
	}
	for _, buf := range buffers {
		cw, err = zw.Create(buf.name)
		if err != nil {
			return err
		}
		if _, err = cw.Write(buf.data); err != nil {
			return errors.Wrapf(err, "zipSceneWriter: failed to write %s", buf.name)
		}
		w.logger.Debugf("wrote %s (%d bytes)", buf.name, len(buf.data))
	}

	if err = zw.Close(); err != nil {
		return err
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}
