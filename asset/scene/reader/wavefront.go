package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/polaris-bvh/asset"
	"github.com/achilleasa/polaris-bvh/asset/compiler/input"
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/log"
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/pkg/errors"
)

// Shading state applied to primitives as they are parsed.
type wavefrontShading struct {
	color      types.Vec3
	material   scene.MaterialType
	ior        float32
	smoothness float32
}

type wavefrontSceneReader struct {
	logger log.Logger

	// The parsed scene.
	rawScene *input.Scene

	// Shading attributes for the next parsed primitive.
	shading wavefrontShading

	// List of vertices and normals. UV coords are only counted so that
	// face indices referencing them can be validated.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvCount    int

	// An error stack that provides additional error information when
	// scene files include other files.
	errStack []string
}

// Create a new wavefront scene reader.
func newWavefrontReader(sceneName string) *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:   log.New("wavefront scene reader"),
		rawScene: input.NewScene(sceneName),
		shading: wavefrontShading{
			color:    scene.DefaultColor,
			material: scene.DiffuseMaterial,
			ior:      scene.DefaultIOR,
		},
		vertexList: make([]types.Vec3, 0),
		normalList: make([]types.Vec3, 0),
		errStack:   make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*input.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	r.logger.Noticef(
		"parsed scene in %d ms (%d primitives, %d groups)",
		time.Since(start).Nanoseconds()/1e6,
		len(r.rawScene.Primitives), len(r.rawScene.Groups),
	)
	return r.rawScene, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return errors.New(errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/uv/normal offsets we can apply them
	// while parsing faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relUvOffset := r.uvCount
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}

			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			if len(lineTokens) < 3 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.uvCount++
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.rawScene.Groups = append(r.rawScene.Groups, lineTokens[1])
		case "f":
			primList, err := r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.rawScene.Primitives = append(r.rawScene.Primitives, primList...)
		case "sphere":
			prim, err := r.parseSphere(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.rawScene.Primitives = append(r.rawScene.Primitives, prim)
		case "material":
			err = r.parseMaterial(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "color":
			r.shading.color, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "smoothness":
			r.shading.smoothness, err = parseFloat32(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "s", "usemtl", "mtllib":
			// Smoothing groups and wavefront material libraries do not
			// affect the generated geometry.
		default:
			r.logger.Debugf(`[%s: %d] ignoring unsupported directive "%s"`, res.Path(), lineNum, lineTokens[0])
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err.Error())
	}

	return nil
}

// Apply the current shading state to a primitive.
func (r *wavefrontSceneReader) applyShading(prim *scene.Primitive) {
	prim.Color = r.shading.color
	prim.Material = r.shading.material
	prim.IOR = r.shading.ior
	prim.Smoothness = r.shading.smoothness
}

// Parse a sphere definition: sphere cX cY cZ radius
func (r *wavefrontSceneReader) parseSphere(lineTokens []string) (scene.Primitive, error) {
	if len(lineTokens) != 5 {
		return scene.Primitive{}, errors.Errorf(`unsupported syntax for "sphere"; expected 4 arguments: cX cY cZ radius; got %d`, len(lineTokens)-1)
	}

	center, err := parseVec3(lineTokens[:4])
	if err != nil {
		return scene.Primitive{}, err
	}
	radius, err := strconv.ParseFloat(lineTokens[4], 32)
	if err != nil {
		return scene.Primitive{}, err
	}
	if radius < 0 {
		return scene.Primitive{}, errors.Errorf("sphere radius must be >= 0; got %v", radius)
	}

	prim := scene.NewSphere(center, float32(radius))
	r.applyShading(&prim)
	return prim, nil
}

// Parse a material selection: material diffuse|mirror|glass [ior]
func (r *wavefrontSceneReader) parseMaterial(lineTokens []string) error {
	if len(lineTokens) < 2 || len(lineTokens) > 3 {
		return errors.Errorf(`unsupported syntax for "material"; expected 1 or 2 arguments; got %d`, len(lineTokens)-1)
	}

	var matType scene.MaterialType
	switch lineTokens[1] {
	case "diffuse":
		matType = scene.DiffuseMaterial
	case "mirror":
		matType = scene.MirrorMaterial
	case "glass":
		matType = scene.GlassMaterial
	default:
		return errors.Errorf(`unknown material type "%s"`, lineTokens[1])
	}

	ior := scene.DefaultIOR
	if len(lineTokens) == 3 {
		v, err := parseFloat32(lineTokens[1:])
		if err != nil {
			return err
		}
		ior = v
	}

	r.shading.material = matType
	r.shading.ior = ior
	return nil
}

// Parse face definition. Each face definition consists of at least 3
// arguments, one for each vertex. Each one of the vertex arguments is
// comprised of 1, 2 or 3 args separated by a slash character. The following
// formats are supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex/uv list.
//
// Faces with more than 3 vertices are split into a triangle fan around
// the first vertex.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) ([]scene.Primitive, error) {
	if len(lineTokens) < 4 {
		return nil, errors.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	argCount := len(lineTokens) - 1
	vertices := make([]types.Vec3, argCount)
	normals := make([]types.Vec3, argCount)
	var vOffset int
	var err error
	expIndices := 0
	hasNormals := false
	for arg := 0; arg < argCount; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
			if expIndices > 3 {
				return nil, errors.Errorf("face argument 0 contains %d indices; expected at most 3", expIndices)
			}
		} else if len(vTokens) != expIndices {
			return nil, errors.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return nil, errors.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return nil, errors.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]

		// UV coords are validated but not stored
		if expIndices > 1 && vTokens[1] != "" {
			_, err = selectFaceCoordIndex(vTokens[1], r.uvCount, relUvOffset)
			if err != nil {
				return nil, errors.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
		}

		// Parse normal coords if specified
		if expIndices > 2 && vTokens[2] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return nil, errors.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			normals[arg] = r.normalList[vOffset]
			hasNormals = true
		}
	}

	primitives := make([]scene.Primitive, 0, argCount-2)
	for fan := 1; fan < argCount-1; fan++ {
		// Average the vertex normals if available; otherwise let the
		// primitive derive its normal from the winding.
		var normal types.Vec3
		if hasNormals {
			normal = normals[0].Add(normals[fan]).Add(normals[fan+1])
			if normal.Len() > 0 {
				normal = normal.Normalize()
			}
		}

		prim := scene.NewTriangle(vertices[0], vertices[fan], vertices[fan+1], normal)
		r.applyShading(&prim)
		primitives = append(primitives, prim)
	}

	return primitives, nil
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, errors.New("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, errors.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, errors.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
