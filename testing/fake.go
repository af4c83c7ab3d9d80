package testing

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/icrowley/fake"

	. "vemoji/common"
	"vemoji/common/emoji"
	"vemoji/storage"
)

var fakeLog = NewLogger("FAKE")
var fakeWait sync.WaitGroup

// FakeVector builds a placeholder image for a codepoint key. The fill
// color is derived from the key so the same emoji always renders the same.
func FakeVector(key string, title string) string {
	color := HashCRC32(key) & 0xFFFFFF

	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 36 36"><title>%s</title><circle cx="18" cy="18" r="16" fill="#%06x"/></svg>`,
		title, color)
}

func vectorHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	key := strings.TrimSuffix(vars["file"], ".svg")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(FakeVector(key, fake.Word())))
}

// StartFakeOrigin serves a local stand-in for the emoji CDNs, for
// development without network access.
func StartFakeOrigin(ctx context.Context) *sync.WaitGroup {
	fakeWait.Add(1)
	fakeLog.Printf("Starting on %s\n", FakeOriginAddr)

	r := mux.NewRouter()
	r.HandleFunc("/svg/{file}", vectorHandler)

	srv := &http.Server{
		Addr:    FakeOriginAddr,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
		fakeLog.Println("Finished")
		fakeWait.Done()
	}()

	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			fakeLog.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	return &fakeWait
}

// PopulateCache seeds every tier glyph so a fresh dev run starts warm.
func PopulateCache(ctx context.Context, cache *storage.Cache) {
	seeded := 0
	for _, tier := range emoji.Tiers() {
		for _, glyph := range tier.Glyphs {
			key := emoji.EmojiToCodepoint(glyph)
			cache.Put(ctx, key, FakeVector(key, fake.Word()), "fake")
			seeded++
		}
	}

	fakeLog.Printf("Seeded %d entries", seeded)
}
