package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/scene_cache_converter/scene"

	_ "github.com/mogaika/scene_cache_converter/exporter/objexport"
	_ "github.com/mogaika/scene_cache_converter/readers/jsondump"
)

func get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	Router().ServeHTTP(rec, req)
	return rec
}

func storedScene(name string) *scene.Scene {
	return &scene.Scene{
		Name: name, SourceFile: name + ".json", FPS: 24, FrameCount: 2,
		Width: 1920, Height: 1080,
		Nodes: []*scene.CanonicalNode{{
			Identity: "Box01Shape",
			Role:     scene.RoleMesh,
			Category: scene.CategoryStatic,
			Transform: []scene.TransformSample{
				{Time: 1.0 / 24.0, Matrix: mgl64.Translate3D(1, 2, 3)}},
			Shape: &scene.ShapeData{
				Samples: []scene.MeshSample{{
					Time:        1.0 / 24.0,
					Positions:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
					FaceIndices: []int32{0, 1, 2},
					FaceCounts:  []int32{3},
				}},
			},
		}},
	}
}

func TestFormatsEndpoint(t *testing.T) {
	rec := get(t, "/json/formats")

	var formats map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &formats); err != nil {
		t.Fatalf("bad response %q: %v", rec.Body.String(), err)
	}
	found := false
	for _, name := range formats["exporters"] {
		if name == "obj" {
			found = true
		}
	}
	if !found {
		t.Errorf("obj exporter not listed: %v", formats)
	}
	found = false
	for _, ext := range formats["readers"] {
		if ext == ".JSON" || ext == ".json" {
			found = true
		}
	}
	if !found {
		t.Errorf("json reader not listed: %v", formats)
	}
}

func TestSceneEndpoints(t *testing.T) {
	storeScene(storedScene("webtest"))

	rec := get(t, "/json/scenes")
	if !strings.Contains(rec.Body.String(), `"webtest"`) {
		t.Errorf("scene list misses webtest: %s", rec.Body.String())
	}

	rec = get(t, "/json/scene/webtest")
	var summary sceneSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("bad summary %q: %v", rec.Body.String(), err)
	}
	if summary.Name != "webtest" || summary.FPS != 24 || len(summary.Nodes) != 1 {
		t.Errorf("summary %+v", summary)
	}
	if summary.Nodes[0].Identity != "Box01Shape" || summary.Nodes[0].Role != "Mesh" {
		t.Errorf("node summary %+v", summary.Nodes[0])
	}

	rec = get(t, "/json/scene/does_not_exist")
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("missing scene should report an error: %s", rec.Body.String())
	}
}

func TestDumpSceneEndpoint(t *testing.T) {
	storeScene(storedScene("dumptest"))

	rec := get(t, "/dump/scene/dumptest/obj")
	if disposition := rec.Header().Get("Content-Disposition"); !strings.Contains(disposition, "dumptest.obj") {
		t.Errorf("disposition=%q; expected obj attachment", disposition)
	}
	if !strings.Contains(rec.Body.String(), "o Box01Shape") {
		t.Errorf("obj payload missing:\n%s", rec.Body.String())
	}

	rec = get(t, "/dump/scene/dumptest/nope")
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("unknown format should report an error: %s", rec.Body.String())
	}
}

func TestUploadSceneEndpoint(t *testing.T) {
	dump := `{
		"name": "uploaded",
		"fps": 24,
		"frameCount": 1,
		"root": {
			"name": "ABC",
			"children": [
				{
					"name": "Box01",
					"transform": [{"time": 0.04, "matrix": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]}],
					"children": [
						{
							"name": "Box01Shape",
							"kind": "polymesh",
							"mesh": {
								"samples": [{
									"time": 0.04,
									"positions": [[0,0,0],[1,0,0],[0,1,0]],
									"faceIndices": [0,1,2],
									"faceCounts": [3]
								}]
							}
						}
					]
				}
			]
		}
	}`

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("data", "uploaded.json")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(dump))
	mw.Close()

	req := httptest.NewRequest("POST", "/upload/scene", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var summary sceneSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("bad summary %q: %v", rec.Body.String(), err)
	}
	if summary.Name != "uploaded" || len(summary.Nodes) != 1 {
		t.Errorf("summary %+v", summary)
	}
	if getScene("uploaded") == nil {
		t.Errorf("uploaded scene not stored")
	}
}
