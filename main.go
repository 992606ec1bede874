package main

import (
	"embed"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"nodemanager/internal/config"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.LoadOrDefault("")
	if err != nil {
		log.Fatal(err)
	}

	app := NewApp(cfg)

	err = wails.Run(&options.App{
		Title:     "Node Manager",
		Width:     640,
		Height:    480,
		MinWidth:  320,
		MinHeight: 240,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
