package reader

import (
	"path/filepath"
	"strings"

	"github.com/achilleasa/polaris-bvh/asset"
	"github.com/achilleasa/polaris-bvh/asset/compiler/input"
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/pkg/errors"
)

// Read a raw scene from a wavefront (.obj) file or URL. The returned scene
// is named after the file.
func ReadInput(filename string) (*input.Scene, error) {
	if !strings.HasSuffix(filename, ".obj") {
		return nil, errors.Errorf("readInput: unsupported file format for %q", filename)
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	sceneName := strings.TrimSuffix(filepath.Base(res.RemotePath()), ".obj")
	return newWavefrontReader(sceneName).Read(res)
}

// Read a compiled scene from a zip archive.
func ReadScene(filename string) (*scene.Scene, error) {
	if !strings.HasSuffix(filename, ".zip") {
		return nil, errors.Errorf("readScene: unsupported file format for %q", filename)
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return newZipSceneReader().Read(res)
}
