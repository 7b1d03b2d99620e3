package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/mogaika/scene_cache_converter/builder"
	"github.com/mogaika/scene_cache_converter/config"
	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/readers"
	"github.com/mogaika/scene_cache_converter/utils"
	"github.com/mogaika/scene_cache_converter/web"

	_ "github.com/mogaika/scene_cache_converter/exporter/fbxexport"
	_ "github.com/mogaika/scene_cache_converter/exporter/gltfexport"
	_ "github.com/mogaika/scene_cache_converter/exporter/jsxexport"
	_ "github.com/mogaika/scene_cache_converter/exporter/maexport"
	_ "github.com/mogaika/scene_cache_converter/exporter/objexport"
	_ "github.com/mogaika/scene_cache_converter/exporter/usdexport"

	_ "github.com/mogaika/scene_cache_converter/readers/jsondump"
)

func main() {
	var in, out, formats, configPath, addr string
	var fps float64
	var frames int
	var dump bool
	flag.StringVar(&in, "in", "", "Path to scene dump file")
	flag.StringVar(&out, "out", ".", "Output directory")
	flag.StringVar(&formats, "formats", "jsx", "Comma-separated export formats (jsx,obj,usd,ma,fbx,gltf)")
	flag.Float64Var(&fps, "fps", 0, "Frame rate override (0 - use source)")
	flag.IntVar(&frames, "frames", 0, "Frame count override (0 - use source)")
	flag.StringVar(&configPath, "config", "", "Path to yaml settings override")
	flag.StringVar(&addr, "i", "", "Address of server (empty - do not start web interface)")
	flag.BoolVar(&dump, "dump", false, "Print the converted scene before exporting")
	flag.Parse()

	if configPath != "" {
		if err := config.LoadSettings(configPath); err != nil {
			log.Fatal(err)
		}
	}

	if addr != "" {
		if err := web.StartServer(addr); err != nil {
			log.Fatal(err)
		}
		return
	}

	if in == "" {
		flag.PrintDefaults()
		return
	}

	f, err := os.Open(in)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	src, err := readers.CallHandler(in, f)
	if err != nil {
		log.Fatal(err)
	}

	b := builder.NewBuilder()
	b.TargetFPS = fps
	b.TargetFrameCount = frames

	s, err := b.Build(src.Root, src.Convention, src.Sampling, src.Metadata)
	if err != nil {
		log.Fatal(err)
	}
	if dump {
		utils.LogDump(s)
	}

	sink := &exporter.DirSink{Dir: out}
	statuses, err := exporter.Run(s, strings.Split(formats, ","), sink)
	if err != nil {
		log.Fatal(err)
	}

	failed := false
	for _, fs := range statuses {
		if fs.Failed() {
			failed = true
			log.Printf("Format %q failed: %v", fs.Format, fs.Error)
		} else {
			log.Printf("Format %q done", fs.Format)
		}
	}
	if failed {
		os.Exit(1)
	}
}
