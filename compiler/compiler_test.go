package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/tree"
)

const cameraXML = `<camera>
	<position x="0" y="0" z="10"/>
	<lookAt x="0" y="0" z="0"/>
</camera>`

// scene wraps body in a world with the standard camera.
func scene(body string) string {
	return "<world>" + cameraXML + body + "</world>"
}

// workspace creates the named empty files in a temp dir.
func workspace(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func compile(t *testing.T, doc string, opts ...Option) (*program.Program, error) {
	t.Helper()
	root, err := tree.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Compile(context.Background(), root, opts...)
}

func mustCompile(t *testing.T, doc string, opts ...Option) *program.Program {
	t.Helper()
	p, err := compile(t, doc, opts...)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return p
}

func TestCubeScene(t *testing.T) {
	dir := workspace(t, "cube.3d")
	p := mustCompile(t, scene(`
		<group>
			<transform><translate x="1" y="0" z="0"/></transform>
			<models><model file="cube.3d"/></models>
		</group>`), WithBaseDir(dir))

	want := []program.Instruction{
		program.BeginGroup{},
		program.Translate{Offset: mgl32.Vec3{1, 0, 0}},
		program.BeginModel{File: "cube.3d"},
		program.EndModel{},
		program.EndGroup{},
	}
	if !reflect.DeepEqual(p.Body, want) {
		t.Errorf("Body = %#v", p.Body)
	}

	cells := p.Encode()[12:]
	wantCells := []float32{6, 1, 1, 0, 0, 4, 7, 'c', 'u', 'b', 'e', '.', '3', 'd', 5, 7}
	if !reflect.DeepEqual(cells, wantCells) {
		t.Errorf("cells = %v\nwant %v", cells, wantCells)
	}
}

func TestTransformsBeforeModels(t *testing.T) {
	dir := workspace(t, "a.3d")
	p := mustCompile(t, scene(`
		<group>
			<group><models><model file="a.3d"/></models></group>
			<models><model file="a.3d"/></models>
			<transform><scale x="2" y="2" z="2"/></transform>
			<transform><rotate angle="45" x="0" y="1" z="0"/></transform>
		</group>`), WithBaseDir(dir))

	var ops []program.Opcode
	for _, inst := range p.Body {
		ops = append(ops, inst.Opcode())
	}
	want := []program.Opcode{
		program.OpBeginGroup,
		program.OpScale, program.OpRotate,
		program.OpBeginModel, program.OpEndModel,
		program.OpBeginGroup, program.OpBeginModel, program.OpEndModel, program.OpEndGroup,
		program.OpEndGroup,
	}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("opcodes = %v\nwant %v", ops, want)
	}
}

func TestTransforms(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want program.Instruction
	}{
		{"translate", `<translate x="1" y="2" z="3"/>`, program.Translate{Offset: mgl32.Vec3{1, 2, 3}}},
		{"rotate", `<rotate angle="90" x="0" y="0" z="1"/>`, program.Rotate{Angle: 90, Axis: mgl32.Vec3{0, 0, 1}}},
		{"rotate without angle", `<rotate x="0" y="1" z="0"/>`, program.Rotate{Axis: mgl32.Vec3{0, 1, 0}}},
		{"timed rotate", `<rotate time="10" x="0" y="1" z="0"/>`, program.ExtendedRotate{Time: 10, Axis: mgl32.Vec3{0, 1, 0}}},
		{"time wins over angle", `<rotate time="5" angle="30" x="1" y="0" z="0"/>`, program.ExtendedRotate{Time: 5, Axis: mgl32.Vec3{1, 0, 0}}},
		{"scale", `<scale x="2" y="3" z="4"/>`, program.Scale{Factor: mgl32.Vec3{2, 3, 4}}},
		{
			"curve",
			`<translate time="2" align="True">
				<point x="0" y="0" z="0"/><point x="1" y="0" z="0"/><point x="0" y="1" z="0"/>
			</translate>`,
			program.ExtendedTranslate{Time: 2, Align: true, Points: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, scene(`<group><transform>`+tt.xml+`</transform></group>`))
			if len(p.Body) != 3 {
				t.Fatalf("Body = %#v", p.Body)
			}
			if !reflect.DeepEqual(p.Body[1], tt.want) {
				t.Errorf("got %#v, want %#v", p.Body[1], tt.want)
			}
		})
	}
}

func TestCurvePointCount(t *testing.T) {
	p := mustCompile(t, scene(`<group><transform>
		<translate time="4">
			<point x="0" y="0" z="0"/><point x="1" y="0" z="0"/>
			<point x="1" y="1" z="0"/><point x="0" y="1" z="0"/>
		</translate>
	</transform></group>`))

	cells := p.Encode()[12:]
	// BEGIN_GROUP, EXTENDED_TRANSLATE, time, align, count, points...
	if cells[1] != float32(program.OpExtendedTranslate) || cells[4] != 4 {
		t.Fatalf("cells = %v", cells)
	}
	if got := len(cells) - 5 - 1; got != 4*3 {
		t.Errorf("%d point cells, want 12", got)
	}
}

func TestMaterials(t *testing.T) {
	dir := workspace(t, "earth.3d", "earth.jpg")
	p := mustCompile(t, scene(`<group><models>
		<model file="earth.3d">
			<texture file="earth.jpg"/>
			<color>
				<diffuse R="255" G="0" B="51"/>
				<emissive R="0" G="0" B="0"/>
				<shininess value="64"/>
			</color>
		</model>
	</models></group>`), WithBaseDir(dir))

	want := []program.Instruction{
		program.BeginGroup{},
		program.BeginModel{File: "earth.3d"},
		program.Texture{File: "earth.jpg"},
		program.Color{Channel: program.Diffuse, RGB: mgl32.Vec3{1, 0, 0.2}},
		program.Color{Channel: program.Emissive, RGB: mgl32.Vec3{0, 0, 0}},
		program.Shininess{Value: 64},
		program.EndModel{},
		program.EndGroup{},
	}
	if !reflect.DeepEqual(p.Body, want) {
		t.Errorf("Body = %#v", p.Body)
	}
}

func TestCamera(t *testing.T) {
	p := mustCompile(t, `<world>
		<camera>
			<position x="1" y="2" z="3"/>
			<lookAt x="0" y="0" z="0"/>
		</camera>
	</world>`)
	want := program.Camera{
		Position: mgl32.Vec3{1, 2, 3},
		Up:       program.DefaultUp,
		FOV:      program.DefaultFOV,
		Near:     program.DefaultNear,
		Far:      program.DefaultFar,
	}
	if p.Camera != want {
		t.Errorf("Camera = %+v", p.Camera)
	}
	if len(p.Body) != 0 {
		t.Errorf("Body = %v", p.Body)
	}

	p = mustCompile(t, `<world>
		<camera>
			<position x="1" y="2" z="3"/>
			<lookAt x="0" y="0" z="0"/>
			<up x="0" y="0" z="1"/>
			<projection fov="45" near="0.5" far="100"/>
		</camera>
	</world>`)
	if p.Camera.Up != (mgl32.Vec3{0, 0, 1}) || p.Camera.FOV != 45 || p.Camera.Near != 0.5 || p.Camera.Far != 100 {
		t.Errorf("Camera = %+v", p.Camera)
	}
}

func TestLights(t *testing.T) {
	p := mustCompile(t, scene(`<lights>
		<light type="point" posX="0" posY="10" posZ="0"/>
		<light type="directional" dirX="1" dirY="-1" dirZ="0"/>
		<light type="spotlight" posX="0" posY="5" posZ="0" dirX="0" dirY="-1" dirZ="0" cutoff="45"/>
	</lights>`))

	want := []program.Light{
		{Kind: program.PointLight, Position: mgl32.Vec3{0, 10, 0}},
		{Kind: program.DirectionalLight, Direction: mgl32.Vec3{1, -1, 0}},
		{Kind: program.SpotLight, Position: mgl32.Vec3{0, 5, 0}, Direction: mgl32.Vec3{0, -1, 0}, Cutoff: 45},
	}
	if !reflect.DeepEqual(p.Lights, want) {
		t.Errorf("Lights = %+v", p.Lights)
	}
}

func TestSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"wrong root", `<scene/>`, xscene.CodeUnknownElement},
		{"no camera", `<world/>`, xscene.CodeMissingElement},
		{"no lookAt", `<world><camera><position x="0" y="0" z="0"/></camera></world>`, xscene.CodeMissingElement},
		{"bad float", scene(`<group><transform><translate x="one" y="0" z="0"/></transform></group>`), xscene.CodeWrongAttributeType},
		{"missing axis", scene(`<group><transform><rotate angle="1" x="0" y="1"/></transform></group>`), xscene.CodeNoAttribute},
		{"unknown transform", scene(`<group><transform><shear x="1" y="0" z="0"/></transform></group>`), xscene.CodeUnknownElement},
		{"timed scale", scene(`<group><transform><scale time="1" x="1" y="1" z="1"/></transform></group>`), xscene.CodeUnknownElement},
		{"curve without points", scene(`<group><transform><translate time="1"/></transform></group>`), xscene.CodeMissingElement},
		{"non-positive period", scene(`<group><transform><rotate time="0" x="0" y="1" z="0"/></transform></group>`), xscene.CodeValueOutOfRange},
		{"bad align", scene(`<group><transform><translate time="1" align="maybe"><point x="0" y="0" z="0"/></translate></transform></group>`), xscene.CodeWrongAttributeType},
		{"model without file", scene(`<group><models><model/></models></group>`), xscene.CodeNoAttribute},
		{"empty file", scene(`<group><models><model file=""/></models></group>`), xscene.CodeValueOutOfRange},
		{"unknown light", scene(`<lights><light type="area" posX="0" posY="0" posZ="0"/></lights>`), xscene.CodeValueOutOfRange},
		{"incomplete spotlight", scene(`<lights><light type="spotlight" posX="0" posY="0" posZ="0" dirX="0" dirY="-1" dirZ="0"/></lights>`), xscene.CodeNoAttribute},
		{"cutoff out of range", scene(`<lights><light type="spotlight" posX="0" posY="0" posZ="0" dirX="0" dirY="-1" dirZ="0" cutoff="120"/></lights>`), xscene.CodeValueOutOfRange},
		{"bad fov", `<world><camera><position x="0" y="0" z="0"/><lookAt x="0" y="0" z="-1"/><projection fov="180" near="1" far="10"/></camera></world>`, xscene.CodeValueOutOfRange},
		{"far before near", `<world><camera><position x="0" y="0" z="0"/><lookAt x="0" y="0" z="-1"/><projection fov="60" near="10" far="1"/></camera></world>`, xscene.CodeValueOutOfRange},
		{"unknown world child", scene(`<sky/>`), xscene.CodeUnknownElement},
		{"duplicate camera", scene(cameraXML), xscene.CodeUnknownElement},
		{"nan fov", `<world><camera><position x="0" y="0" z="0"/><lookAt x="0" y="0" z="-1"/><projection fov="nan" near="1" far="10"/></camera></world>`, xscene.CodeWrongAttributeType},
		{"nan color", scene(`<group><models><model file="a.3d"><color><diffuse R="nan" G="0" B="0"/></color></model></models></group>`), xscene.CodeWrongAttributeType},
		{"nan cutoff", scene(`<lights><light type="spotlight" posX="0" posY="0" posZ="0" dirX="0" dirY="-1" dirZ="0" cutoff="NaN"/></lights>`), xscene.CodeWrongAttributeType},
		{"nan shininess", scene(`<group><models><model file="a.3d"><color><shininess value="nan"/></color></model></models></group>`), xscene.CodeWrongAttributeType},
		{"infinite translate", scene(`<group><transform><translate x="inf" y="0" z="0"/></transform></group>`), xscene.CodeWrongAttributeType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, tt.doc, WithoutFileCheck())
			if !errors.Is(err, xscene.ErrSchema) {
				t.Fatalf("err = %v, want schema error", err)
			}
			var se *xscene.SchemaError
			if errors.As(err, &se) && se.Code != tt.code {
				t.Errorf("Code = %s, want %s (%v)", se.Code, tt.code, err)
			}
		})
	}
}

func TestMissingFiles(t *testing.T) {
	dir := workspace(t, "cube.3d")
	tests := []struct {
		name string
		body string
	}{
		{"model", `<model file="sphere.3d"/>`},
		{"texture", `<model file="cube.3d"><texture file="none.png"/></model>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, scene(`<group><models>`+tt.body+`</models></group>`), WithBaseDir(dir))
			if !errors.Is(err, xscene.ErrResource) {
				t.Fatalf("err = %v, want resource error", err)
			}
			if errors.Is(err, xscene.ErrSchema) {
				t.Error("missing file must not be a schema error")
			}
		})
	}

	if _, err := compile(t, scene(`<group><models><model file="sphere.3d"/></models></group>`),
		WithBaseDir(dir), WithoutFileCheck()); err != nil {
		t.Errorf("WithoutFileCheck: %v", err)
	}
}

func TestCompileFile(t *testing.T) {
	dir := workspace(t, "cube.3d")
	path := filepath.Join(dir, "scene.xml")
	doc := scene(`<group><models><model file="cube.3d"/></models></group>`)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := CompileFile(context.Background(), path)
	if err != nil {
		t.Fatalf("CompileFile: %v", err)
	}
	if p.Models() != 1 {
		t.Errorf("Models() = %d", p.Models())
	}

	if _, err := CompileFile(context.Background(), filepath.Join(dir, "missing.xml")); !errors.Is(err, xscene.ErrResource) {
		t.Errorf("missing scene: err = %v", err)
	}
}

func TestCancelled(t *testing.T) {
	root, err := tree.Parse(strings.NewReader(scene(`<group/>`)))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compile(ctx, root); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// fakeRunner records invocations and creates the file named by the last
// argument, like a generator would.
type fakeRunner struct {
	calls [][]string
	fail  error
}

func (r *fakeRunner) Run(_ context.Context, dir string, argv []string) error {
	r.calls = append(r.calls, argv)
	if r.fail != nil {
		return r.fail
	}
	return os.WriteFile(filepath.Join(dir, argv[len(argv)-1]), nil, 0o644)
}

func TestGenerator(t *testing.T) {
	dir := workspace(t, "gen")
	r := &fakeRunner{}
	p := mustCompile(t, scene(`
		<generator dir="gen"/>
		<generator argv="--init 'a b'"/>
		<group generator="sphere 1 10 10 {file}">
			<models>
				<model file="sphere.3d"/>
				<model file="box.3d" generator="box 2 {file}"/>
			</models>
		</group>`), WithBaseDir(dir), WithRunner(r))

	exe := filepath.Join(dir, "gen")
	want := [][]string{
		{exe, "--init", "a b"},
		{exe, "sphere", "1", "10", "10", "sphere.3d"},
		{exe, "box", "2", "box.3d"},
	}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("calls = %q\nwant %q", r.calls, want)
	}
	if p.Models() != 2 {
		t.Errorf("Models() = %d", p.Models())
	}
}

func TestGeneratorInactive(t *testing.T) {
	dir := workspace(t, "sphere.3d")
	r := &fakeRunner{}
	mustCompile(t, scene(`
		<generator argv="ignored"/>
		<group generator="sphere {file}"><models><model file="sphere.3d"/></models></group>`),
		WithBaseDir(dir), WithRunner(r))
	if len(r.calls) != 0 {
		t.Errorf("inactive generator ran: %q", r.calls)
	}
}

func TestGeneratorFailure(t *testing.T) {
	dir := workspace(t, "gen")
	r := &fakeRunner{fail: errors.New("exit status 1")}
	_, err := compile(t, scene(`<group><models><model file="sphere.3d" generator="sphere {file}"/></models></group>`),
		WithBaseDir(dir), WithRunner(r), WithGenerator("gen"))
	if !errors.Is(err, xscene.ErrResource) {
		t.Fatalf("err = %v, want resource error", err)
	}
	var re *xscene.ResourceError
	if !errors.As(err, &re) || re.Op != "generate" || !strings.Contains(re.Path, "sphere.3d") {
		t.Errorf("err = %#v", err)
	}

	if _, err := compile(t, scene(``), WithBaseDir(dir), WithGenerator("missing")); !errors.Is(err, xscene.ErrResource) {
		t.Errorf("missing generator: err = %v", err)
	}
}
