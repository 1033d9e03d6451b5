package ui

import (
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/unit"
)

// Run launches the Gio UI and blocks until the window closes.
func Run(env Env, state *AppState) error {
	if state == nil {
		state = NewState()
	}
	ctrl := NewController(env, state)
	state.SetStatus("Select a microcontroller")

	go func() {
		w := new(app.Window)
		w.Option(app.Title("OpenTraceMCU"), app.Size(unit.Dp(1024), unit.Dp(720)))
		ui := New(w, ctrl)
		if err := ui.Run(); err != nil {
			log.Printf("ui: %v", err)
		}
		os.Exit(0)
	}()

	app.Main()
	return nil
}
