package web

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mogaika/scene_cache_converter/builder"
	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/readers"
	"github.com/mogaika/scene_cache_converter/scene"
	"github.com/mogaika/scene_cache_converter/webutils"
)

func HandlerAjaxFormats(w http.ResponseWriter, r *http.Request) {
	exportFormats := exporter.ListHandlers()
	readerExts := readers.ListHandlers()
	sort.Strings(exportFormats)
	sort.Strings(readerExts)

	webutils.WriteJson(w, map[string][]string{
		"exporters": exportFormats,
		"readers":   readerExts,
	})
}

func HandlerAjaxScenes(w http.ResponseWriter, r *http.Request) {
	names := listScenes()
	sort.Strings(names)
	webutils.WriteJson(w, names)
}

// sceneSummary is the inspection view of a converted scene, one row per
// canonical node.
type sceneSummary struct {
	Name       string
	SourceFile string
	FPS        float64
	FrameCount int
	Nodes      []nodeSummary
}

type nodeSummary struct {
	Identity       string
	ParentIdentity string `json:",omitempty"`
	SourcePath     string
	Role           string
	Category       string
	Frames         int
	Variance       string `json:",omitempty"`
}

func summarize(s *scene.Scene) sceneSummary {
	summary := sceneSummary{
		Name:       s.Name,
		SourceFile: s.SourceFile,
		FPS:        s.FPS,
		FrameCount: s.FrameCount,
	}
	for _, n := range s.Nodes {
		row := nodeSummary{
			Identity:       n.Identity,
			ParentIdentity: n.ParentIdentity,
			SourcePath:     n.SourcePath,
			Role:           n.Role.String(),
			Category:       n.Category.String(),
			Frames:         len(n.Transform),
		}
		if n.Shape != nil {
			row.Variance = n.Shape.Variance.String()
		}
		summary.Nodes = append(summary.Nodes, row)
	}
	return summary
}

func HandlerAjaxScene(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["scene"]
	s := getScene(name)
	if s == nil {
		webutils.WriteError(w, fmt.Errorf("Scene %q is not loaded", name))
		return
	}
	webutils.WriteJson(w, summarize(s))
}

func HandlerUploadScene(w http.ResponseWriter, r *http.Request) {
	fileStream, header, err := r.FormFile("data")
	if err != nil {
		webutils.WriteError(w, fmt.Errorf("File stream getting error: %v", err))
		return
	}
	defer fileStream.Close()

	src, err := readers.CallHandler(header.Filename, fileStream)
	if err != nil {
		log.Printf("[web] Error reading scene %q: %v", header.Filename, err)
		webutils.WriteError(w, err)
		return
	}

	s, err := builder.NewBuilder().Build(src.Root, src.Convention, src.Sampling, src.Metadata)
	if err != nil {
		log.Printf("[web] Error converting scene %q: %v", header.Filename, err)
		webutils.WriteError(w, err)
		return
	}

	storeScene(s)
	log.Printf("[web] Loaded scene %q: %d nodes", s.Name, len(s.Nodes))
	webutils.WriteJson(w, summarize(s))
}

func HandlerDumpSceneFormat(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["scene"]
	format := mux.Vars(r)["format"]

	s := getScene(name)
	if s == nil {
		webutils.WriteError(w, fmt.Errorf("Scene %q is not loaded", name))
		return
	}

	sink := &exporter.MemorySink{}
	statuses, err := exporter.Run(s, []string{format}, sink)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	if statuses[0].Failed() {
		webutils.WriteError(w, fmt.Errorf("Export failed: %v", statuses[0].Error))
		return
	}

	names := sink.Names()
	if len(names) == 1 {
		webutils.WriteFile(w, strings.NewReader(string(sink.File(names[0]))), names[0])
		return
	}

	files := make(map[string][]byte, len(names))
	for _, fileName := range names {
		files[fileName] = sink.File(fileName)
	}
	webutils.WriteZip(w, files, fmt.Sprintf("%s_%s.zip", s.Name, format))
}
