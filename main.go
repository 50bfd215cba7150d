package main

import (
	"context"
	"embed"
	"os"
	"runtime"

	"github.com/energye/systray"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

//go:embed build/icon.svg
var iconData []byte

//go:embed all:frontend/dist
var assets embed.FS

var appVersion = "0.9.0"

func main() {
	app := NewApp(appVersion)

	// Headless mode: serve the same backend over stdio for MCP clients
	// instead of opening a window.
	for _, arg := range os.Args[1:] {
		if arg == "--mcp" {
			app.mcpMode = true
			app.startup(context.Background())
			StartMCPServer(app)
			app.Shutdown(context.Background())
			return
		}
	}

	var shouldQuit bool

	var applicationMenu *menu.Menu
	if runtime.GOOS == "darwin" {
		applicationMenu = menu.NewMenu()
		applicationMenu.Append(menu.AppMenu())
		applicationMenu.Append(menu.WindowMenu())
	}

	err := wails.Run(&options.App{
		Title:     "Tether",
		Width:     1280,
		Height:    720,
		MinWidth:  1280,
		MinHeight: 720,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Menu:             applicationMenu,
		BackgroundColour: &options.RGBA{R: 24, G: 30, B: 42, A: 1},
		OnStartup: func(ctx context.Context) {
			app.startup(ctx)
			if runtime.GOOS == "darwin" {
				start, _ := systray.RunWithExternalLoop(func() {
					systray.SetIcon(iconData)
					systray.SetTooltip("Tether")

					mShow := systray.AddMenuItem("Open Tether", "Show the main window")
					mShow.Click(func() {
						wailsRuntime.WindowShow(ctx)
					})

					mQuit := systray.AddMenuItem("Quit", "Quit Tether")
					mQuit.Click(func() {
						shouldQuit = true
						systray.Quit()
						wailsRuntime.Quit(ctx)
					})
				}, func() {})
				start()
			}
		},
		WindowStartState: options.Normal,
		OnBeforeClose: func(ctx context.Context) (prevent bool) {
			if runtime.GOOS == "darwin" && !shouldQuit {
				wailsRuntime.WindowHide(ctx)
				return true
			}
			return false
		},
		OnShutdown: app.Shutdown,
		DragAndDrop: &options.DragAndDrop{
			EnableFileDrop:     true,
			DisableWebViewDrop: true,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				FullSizeContent:            true,
				HideToolbarSeparator:       true,
			},
			Appearance:           mac.NSAppearanceNameDarkAqua,
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
			About: &mac.AboutInfo{
				Title:   "Tether",
				Message: "Android device manager built on adb",
			},
		},
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
