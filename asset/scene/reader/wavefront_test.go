package reader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/polaris-bvh/asset"
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/types"
)

func mockResource(payload string) *asset.Resource {
	return asset.NewResourceFromStream("embedded", strings.NewReader(payload))
}

func approxEqual(v1, v2 types.Vec3, threshold float32) bool {
	return v1.Sub(v2).Len() <= threshold
}

func TestFloat32Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 1 argument; got 0`
	_, err := parseFloat32([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseFloat32([]string{"v", "not-a-float"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseFloat32([]string{"v", "3.14"})
	if err != nil {
		t.Fatal(err)
	}

	if v != 3.14 {
		t.Fatalf("expected parsed value to be 3.14; got %f", v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in        string
		listLen   int
		relOffset int
		out       int
		expError  string
	}
	specs := []spec{
		{"2", 1, 0, -1, expError},
		{"-2", 1, 0, -1, expError},
		{"1", 10, 0, 0, ""}, // indices are 1-based
		{"-1", 10, 0, 9, ""},
		{"1", 10, 4, 4, ""}, // included files index relative to their own coords
		{"7", 10, 4, -1, expError},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen, s.relOffset)
		if s.expError != "" && (err == nil || err.Error() != s.expError) {
			t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestParseSingleFacedObject(t *testing.T) {
	payload := `
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
vn 1 0 0
vt 0 0
vn 0 1 0
vt 0 1
vn 0 1 0
vt 1 0
vn 0 0 1
# Comment
f 1/1/1 2/2/2 -1/-1/-1
`

	r := newWavefrontReader("test")
	sc, err := r.Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(sc.Groups, []string{"testObj"}) {
		t.Fatalf("expected groups to be [testObj]; got %v", sc.Groups)
	}

	expPrimitives := 1
	if len(sc.Primitives) != expPrimitives {
		t.Fatalf("expected scene to contain %d primitives; got %d", expPrimitives, len(sc.Primitives))
	}

	expPoints := []types.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
	}
	prim0 := sc.Primitives[0]
	for idx, exp := range expPoints {
		if !reflect.DeepEqual(prim0.Vertices[idx], exp) {
			t.Fatalf("expected vertex %d to be %v; got %v", idx, exp, prim0.Vertices[idx])
		}
	}

	// Normals 1, 2 and 4 are referenced: (1,0,0) + (0,1,0) + (0,0,1)
	expNormal := types.Vec3{1, 1, 1}.Normalize()
	if !approxEqual(prim0.Normal, expNormal, 1e-5) {
		t.Fatalf("expected averaged normal to be %v; got %v", expNormal, prim0.Normal)
	}

	expCenter := types.Vec3{0.333, 0.333, 0}
	if !approxEqual(prim0.Center(), expCenter, 1e-3) {
		t.Fatalf("expected face center to be %v; got %v", expCenter, prim0.Center())
	}

	bbox := prim0.BBox()
	if !approxEqual(bbox.Min, types.Vec3{0, 0, 0}, 1e-3) || !approxEqual(bbox.Max, types.Vec3{1, 1, 0}, 1e-3) {
		t.Fatalf("expected bbox to be approximately [(0,0,0), (1,1,0)]; got %v", bbox)
	}
}

func TestParsePolygonFan(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v -1 0.5 0
f 1 2 3 4
f 1//1 2//1 3//1 4//1 5//1
vn 0 0 1
`
	_, err := newWavefrontReader("test").Read(mockResource(payload))
	expError := "[embedded: 8] error: could not parse normal coord for face argument 0: index out of bounds"
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}

	payload = `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v -1 0.5 0
vn 0 0 -1
f 1 2 3 4
f 1//1 2//1 3//1 4//1 5//1
`
	sc, err := newWavefrontReader("test").Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	// A quad yields 2 triangles and a pentagon 3 triangles
	if len(sc.Primitives) != 5 {
		t.Fatalf("expected 5 triangles; got %d", len(sc.Primitives))
	}

	expFan := [][3]types.Vec3{
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	}
	for idx, exp := range expFan {
		if sc.Primitives[idx].Vertices != exp {
			t.Fatalf("expected triangle %d vertices to be %v; got %v", idx, exp, sc.Primitives[idx].Vertices)
		}
	}

	// Without normals the winding defines the normal
	if sc.Primitives[0].Normal != (types.Vec3{0, 0, 1}) {
		t.Fatalf("expected derived normal (0, 0, 1); got %v", sc.Primitives[0].Normal)
	}
	if sc.Primitives[4].Normal != (types.Vec3{0, 0, -1}) {
		t.Fatalf("expected explicit normal (0, 0, -1); got %v", sc.Primitives[4].Normal)
	}
}

func TestParseFaceErrors(t *testing.T) {
	type spec struct {
		payload  string
		expError string
	}
	specs := []spec{
		{"v 0 0 0\nv 1 0 0\nf 1 2", `[embedded: 3] error: unsupported syntax for "f"; expected at least 3 arguments; got 2`},
		{"v 0 0 0\nv 1 0 0\nv 1 1 0\nf 1 2 4", `[embedded: 4] error: could not parse vertex coord for face argument 2: index out of bounds`},
		{"v 0 0 0\nv 1 0 0\nv 1 1 0\nf 1 2/1 3", `[embedded: 4] error: expected each face argument to contain 1 indices; arg 1 contains 2 indices`},
		{"v 0 0 0\nv 1 0 0\nv 1 1 0\nf 1/1 2/1 3/1", `[embedded: 4] error: could not parse tex coord for face argument 0: index out of bounds`},
		{"v 0 0 0\nv 1 0 0\nv 1 1 0\nf /1 2 3", `[embedded: 4] error: face argument 0 does not include a vertex index`},
		{"v 0 0", `[embedded: 1] error: unsupported syntax for "v"; expected 3 arguments; got 2`},
		{"o", `[embedded: 1] error: unsupported syntax for "o"; expected 1 argument for object name; got 0`},
	}

	for idx, s := range specs {
		_, err := newWavefrontReader("test").Read(mockResource(s.payload))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected to get error: %s; got %v", idx, s.expError, err)
		}
	}
}

func TestParseSpheresAndShading(t *testing.T) {
	payload := `
sphere 0 0 0 1
material glass 1.5
color 0.1 0.2 0.3
smoothness 0.75
sphere 5 0 0 0.5
material mirror
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	sc, err := newWavefrontReader("test").Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Primitives) != 3 {
		t.Fatalf("expected 3 primitives; got %d", len(sc.Primitives))
	}

	s0 := sc.Primitives[0]
	if s0.Kind != scene.SphereShape || s0.Radius != 1 || s0.Material != scene.DiffuseMaterial || s0.Color != scene.DefaultColor {
		t.Fatalf("expected a default diffuse unit sphere; got %+v", s0)
	}

	s1 := sc.Primitives[1]
	if s1.Kind != scene.SphereShape || s1.Vertices[0] != (types.Vec3{5, 0, 0}) || s1.Radius != 0.5 {
		t.Fatalf("expected sphere at (5, 0, 0) with radius 0.5; got %+v", s1)
	}
	if s1.Material != scene.GlassMaterial || s1.IOR != 1.5 || s1.Smoothness != 0.75 {
		t.Fatalf("expected glass sphere with ior 1.5 and smoothness 0.75; got %+v", s1)
	}
	if s1.Color != (types.Vec3{0.1, 0.2, 0.3}) {
		t.Fatalf("expected sphere color (0.1, 0.2, 0.3); got %v", s1.Color)
	}

	// Selecting a material without an ior resets it
	tri := sc.Primitives[2]
	if tri.Kind != scene.TriangleShape || tri.Material != scene.MirrorMaterial || tri.IOR != scene.DefaultIOR {
		t.Fatalf("expected a mirror triangle with default ior; got %+v", tri)
	}
}

func TestParseShadingErrors(t *testing.T) {
	type spec struct {
		payload  string
		expError string
	}
	specs := []spec{
		{"sphere 0 0 0", `[embedded: 1] error: unsupported syntax for "sphere"; expected 4 arguments: cX cY cZ radius; got 3`},
		{"sphere 0 0 0 -1", `[embedded: 1] error: sphere radius must be >= 0; got -1`},
		{"material plastic", `[embedded: 1] error: unknown material type "plastic"`},
		{"material", `[embedded: 1] error: unsupported syntax for "material"; expected 1 or 2 arguments; got 0`},
		{"color 1 1", `[embedded: 1] error: unsupported syntax for "color"; expected 3 arguments; got 2`},
	}

	for idx, s := range specs {
		_, err := newWavefrontReader("test").Read(mockResource(s.payload))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected to get error: %s; got %v", idx, s.expError, err)
		}
	}
}

func TestIncludes(t *testing.T) {
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/scenes/scene.obj":
			w.Write([]byte("v 10 10 10\nv 11 10 10\nv 10 11 10\nf 1 2 3\ncall models/tri.obj\nf -3 -2 -1\n"))
		case "/scenes/models/tri.obj":
			w.Write([]byte("o tri\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
		case "/scenes/broken.obj":
			w.Write([]byte("call models/broken.obj\n"))
		case "/scenes/models/broken.obj":
			w.Write([]byte("f 1 2 3\n"))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	sc, err := ReadInput(server.URL + "/scenes/scene.obj")
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "scene" {
		t.Fatalf("expected scene name to be %q; got %q", "scene", sc.Name)
	}
	if len(sc.Primitives) != 3 {
		t.Fatalf("expected 3 primitives; got %d", len(sc.Primitives))
	}

	// Positive indices in the included file are relative to its own vertices
	if sc.Primitives[1].Vertices[0] != (types.Vec3{0, 0, 0}) {
		t.Fatalf("expected included face to reference the included vertices; got %v", sc.Primitives[1].Vertices)
	}
	// Negative indices always reference the most recent vertices
	if sc.Primitives[2].Vertices != sc.Primitives[1].Vertices {
		t.Fatalf("expected negative indices to reference the last parsed vertices; got %v", sc.Primitives[2].Vertices)
	}

	_, err = ReadInput(server.URL + "/scenes/broken.obj")
	expError := "[" + server.URL + "/scenes/models/broken.obj: 1] error: could not parse vertex coord for face argument 0: index out of bounds\nreferenced from " + server.URL + "/scenes/broken.obj:1 [call]"
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error:\n%s\ngot:\n%v", expError, err)
	}
}

func TestReadInputFromFile(t *testing.T) {
	dir := t.TempDir()
	objFile := filepath.Join(dir, "quad.obj")
	payload := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"
	if err := os.WriteFile(objFile, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := ReadInput(objFile)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "quad" || len(sc.Primitives) != 2 {
		t.Fatalf("expected scene %q with 2 primitives; got %q with %d", "quad", sc.Name, len(sc.Primitives))
	}

	if _, err = ReadInput(filepath.Join(dir, "quad.txt")); err == nil {
		t.Fatal("expected an error for an unsupported file extension")
	}
	if _, err = ReadScene(objFile); err == nil {
		t.Fatal("expected an error reading an obj file as a compiled scene")
	}
}
