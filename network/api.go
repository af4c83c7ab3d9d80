package network

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"vemoji/common"
	"vemoji/resolver"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func gatewayHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	resolver.HandleGatewayConnection(srvCtx, conn)
}

// emojiHandler is the UI collaborator's resolve boundary: vector markup on
// success, 404 on a miss so the caller renders the plain-text glyph.
func emojiHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	glyph := vars["glyph"]
	if glyph == "" {
		http.Error(w, "missing glyph", http.StatusBadRequest)
		return
	}

	res, err := srvResolver.Resolve(r.Context(), glyph)
	if err != nil {
		var coded *common.CodedError
		if errors.As(err, &coded) && coded.Code == common.ErrorCodeNotResolved {
			http.Error(w, "emoji not resolved", http.StatusNotFound)
		} else {
			srvLog.Printf("Failed to resolve %q: %v", glyph, err)
			http.Error(w, "failed to resolve emoji", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=604800")
	w.Header().Set("X-Emoji-Source", res.Source)
	if res.ID != 0 {
		w.Header().Set("X-Emoji-ID", strconv.FormatInt(res.ID, 10))
	}
	w.Write([]byte(res.Content))
}

func statusHandler(w http.ResponseWriter, r *http.Request) {
	sources := []string{}
	for _, source := range resolver.LoadSources() {
		sources = append(sources, source.Name)
	}

	status := struct {
		Entries int                      `json:"entries"`
		Preload resolver.PreloadProgress `json:"preload"`
		Sources []string                 `json:"sources"`
	}{
		Entries: srvCache.Count(r.Context()),
		Preload: srvPreloader.Progress(),
		Sources: sources,
	}

	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.Encode(status)
}

func buildAPIRouter(router *mux.Router) {
	router.HandleFunc("/gateway", gatewayHandler)

	router.HandleFunc("/emoji/{glyph}", emojiHandler)

	router.HandleFunc("/status", statusHandler)
}
