package network

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"vemoji/common"
	"vemoji/resolver"
	"vemoji/storage"
)

var srvWait sync.WaitGroup
var srvCtx context.Context
var srvLog = common.NewLogger("SERVER")

var srvResolver *resolver.Resolver
var srvPreloader *resolver.Preloader
var srvCache *storage.Cache

func buildRouter() *mux.Router {
	r := mux.NewRouter()

	buildAPIRouter(r)

	return r
}

func StartServer(ctx context.Context, res *resolver.Resolver, pre *resolver.Preloader, cache *storage.Cache) *sync.WaitGroup {
	srvCtx = ctx
	srvResolver = res
	srvPreloader = pre
	srvCache = cache

	srvWait.Add(1)
	srvLog.Printf("Starting on %s\n", common.ListenAddr)

	r := buildRouter()

	srv := &http.Server{
		Addr:    common.ListenAddr,
		Handler: r,
	}

	go func() {
		<-srvCtx.Done()
		srv.Shutdown(context.Background())
		srvLog.Println("Finished")
		srvWait.Done()
	}()

	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			srvLog.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	return &srvWait
}
