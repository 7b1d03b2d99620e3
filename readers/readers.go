package readers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/scene_cache_converter/scene"
)

// Source is everything a reader extracts from one scene file: the raw tree
// plus the declared conventions the builder needs to normalize it.
type Source struct {
	Root       *scene.RawNode
	Convention scene.AxisConvention
	Sampling   scene.TimeSampling
	Metadata   scene.Metadata
}

type SourceReader func(name string, r io.Reader) (*Source, error)

var gReaders map[string]SourceReader = make(map[string]SourceReader, 0)

func SetHandler(ext string, rdr SourceReader) {
	gReaders[strings.ToUpper(ext)] = rdr
}

func CallHandler(name string, r io.Reader) (*Source, error) {
	ext := strings.ToUpper(filepath.Ext(name))

	if h, found := gReaders[ext]; found {
		return h(name, r)
	}
	return nil, errors.Errorf("Cannot find reader for %q extension", ext)
}

func ListHandlers() []string {
	exts := make([]string, 0, len(gReaders))
	for ext := range gReaders {
		exts = append(exts, strings.ToLower(ext))
	}
	return exts
}
