package exporter

import (
	"fmt"
	"strings"

	"github.com/mogaika/scene_cache_converter/scene"
)

// Exporter renders one canonical scene into one target format. Exporters
// declare which animation categories they can represent natively; the
// orchestrator degrades or skips nodes falling outside that set before
// Export is called, so exporters never see a category they did not claim.
type Exporter interface {
	Name() string
	FileExtension() string
	SupportedCategories() []scene.AnimationCategory
	Export(s *scene.Scene, plan *Plan, out OutputSink) error
}

var gExporters map[string]Exporter = make(map[string]Exporter, 0)

func SetHandler(format string, e Exporter) {
	gExporters[strings.ToLower(format)] = e
}

func GetHandler(format string) (Exporter, error) {
	if e, found := gExporters[strings.ToLower(format)]; found {
		return e, nil
	}
	return nil, fmt.Errorf("[exporter] Cannot find handler for '%s' format", format)
}

func ListHandlers() []string {
	names := make([]string, 0, len(gExporters))
	for name := range gExporters {
		names = append(names, name)
	}
	return names
}
