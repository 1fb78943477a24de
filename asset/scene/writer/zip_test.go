package writer

import (
	"archive/zip"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/achilleasa/polaris-bvh/asset/compiler"
	"github.com/achilleasa/polaris-bvh/asset/compiler/bvh"
	"github.com/achilleasa/polaris-bvh/asset/compiler/input"
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/asset/scene/reader"
	"github.com/achilleasa/polaris-bvh/types"
)

func compiledScene(t *testing.T) *scene.Scene {
	in := input.NewScene("roundtrip")
	for index := 0; index < 40; index++ {
		offset := types.Vec3{float32(index % 7), float32(index / 7), float32(index % 3)}
		if index%4 == 0 {
			sphere := scene.NewSphere(offset, 0.25)
			sphere.Material = scene.GlassMaterial
			sphere.IOR = 1.33
			in.Primitives = append(in.Primitives, sphere)
			continue
		}
		in.Primitives = append(in.Primitives, scene.NewTriangle(
			offset,
			offset.Add(types.Vec3{0.5, 0, 0}),
			offset.Add(types.Vec3{0, 0.5, 0}),
			types.Vec3{},
		))
	}

	sc, err := compiler.Compile(in, bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestZipRoundTrip(t *testing.T) {
	sc := compiledScene(t)
	sceneFile := filepath.Join(t.TempDir(), "scene.zip")

	if err := WriteScene(sc, sceneFile); err != nil {
		t.Fatal(err)
	}

	zr, err := zip.OpenReader(sceneFile)
	if err != nil {
		t.Fatal(err)
	}
	expEntries := map[string]uint64{
		reader.MetadataFile:   0,
		reader.NodesFile:      uint64(len(sc.BvhNodeList) * scene.BvhNodeSize),
		reader.IndicesFile:    uint64(len(sc.IndexList) * scene.IndexSize),
		reader.PrimitivesFile: uint64(len(sc.PrimitiveList) * scene.PrimitiveSize),
	}
	if len(zr.File) != len(expEntries) {
		t.Fatalf("expected archive to contain %d entries; got %d", len(expEntries), len(zr.File))
	}
	for _, f := range zr.File {
		expSize, known := expEntries[f.Name]
		if !known {
			t.Fatalf("unexpected archive entry %q", f.Name)
		}
		if expSize != 0 && f.UncompressedSize64 != expSize {
			t.Fatalf("expected entry %q to be %d bytes; got %d", f.Name, expSize, f.UncompressedSize64)
		}
	}
	zr.Close()

	loaded, err := reader.ReadScene(sceneFile)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Name != sc.Name {
		t.Fatalf("expected scene name %q; got %q", sc.Name, loaded.Name)
	}
	if !reflect.DeepEqual(loaded.BuildInfo, sc.BuildInfo) {
		t.Fatalf("expected build info %+v; got %+v", sc.BuildInfo, loaded.BuildInfo)
	}
	if !reflect.DeepEqual(loaded.BvhNodeList, sc.BvhNodeList) {
		t.Fatal("expected loaded node list to match the written one")
	}
	if !reflect.DeepEqual(loaded.IndexList, sc.IndexList) {
		t.Fatal("expected loaded index list to match the written one")
	}
	if !reflect.DeepEqual(loaded.PrimitiveList, sc.PrimitiveList) {
		t.Fatal("expected loaded primitive list to match the written one")
	}

	if _, err = bvh.Validate(loaded.BvhNodeList, loaded.IndexList, bvh.FromPrimitives(loaded.PrimitiveList), bvh.DefaultOptions()); err != nil {
		t.Fatal(err)
	}
}

func TestReadTruncatedArchive(t *testing.T) {
	sceneFile := filepath.Join(t.TempDir(), "broken.zip")
	sc := compiledScene(t)
	sc.IndexList = sc.IndexList[:len(sc.IndexList)-1]

	if err := WriteScene(sc, sceneFile); err != nil {
		t.Fatal(err)
	}
	if _, err := reader.ReadScene(sceneFile); err == nil {
		t.Fatal("expected an error reading a scene with a short index list")
	}
}
