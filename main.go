package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	. "vemoji/common"

	"vemoji/network"
	"vemoji/resolver"
	"vemoji/storage"
	"vemoji/testing"
)

var mainCtx *VemojiContext
var mainLog = NewLogger("MAIN")

func init() {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT)

	ctx, cancel := context.WithCancel(context.Background())

	mainCtx = &VemojiContext{
		Context: ctx,
		Cancel:  cancel,
	}

	go func() {
		<-sigchan
		mainLog.Println("Shutting down...")
		signal.Stop(sigchan)
		cancel()
	}()
}

func main() {
	LoadConfig()

	var dataExists bool = false
	if _, err := os.Stat(DataFolder); err == nil {
		dataExists = true
	}

	if !dataExists {
		os.Mkdir(DataFolder, 0755)
	}

	storage.StartDatabase(mainCtx)

	cache := storage.NewCache(storage.NewSQLiteStore())

	if DevFakeOrigin {
		testing.StartFakeOrigin(mainCtx)
		EmojiSources = []string{"fake|http://localhost" + FakeOriginAddr + "/svg/%s.svg|strip"}

		if !dataExists {
			mainLog.Println("Populating cache")
			testing.PopulateCache(mainCtx, cache)
			mainLog.Println("Done")
		}
	}

	res := resolver.NewResolver(cache)
	pre := resolver.NewPreloader(res)

	network.StartServer(mainCtx, res, pre, cache)
	pre.Start(mainCtx)

	<-mainCtx.Done()
	mainCtx.Subsystems.Wait()
	mainLog.Println("Exiting")
}
