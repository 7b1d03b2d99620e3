package web

import (
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/scene_cache_converter/scene"
)

var (
	scenesMu sync.RWMutex
	scenes   = make(map[string]*scene.Scene)
)

func storeScene(s *scene.Scene) {
	scenesMu.Lock()
	defer scenesMu.Unlock()
	scenes[s.Name] = s
}

func getScene(name string) *scene.Scene {
	scenesMu.RLock()
	defer scenesMu.RUnlock()
	return scenes[name]
}

func listScenes() []string {
	scenesMu.RLock()
	defer scenesMu.RUnlock()
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	return names
}

func Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/upload/scene", HandlerUploadScene)
	r.HandleFunc("/json/formats", HandlerAjaxFormats)
	r.HandleFunc("/json/scenes", HandlerAjaxScenes)
	r.HandleFunc("/json/scene/{scene}", HandlerAjaxScene)
	r.HandleFunc("/dump/scene/{scene}/{format}", HandlerDumpSceneFormat)
	return r
}

func StartServer(addr string) error {
	h := handlers.RecoveryHandler()(Router())
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
