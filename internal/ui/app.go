package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"

	"gioui.org/app"
	"gioui.org/gesture"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/oligo/gioview/menu"
	"github.com/oligo/gioview/theme"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regform"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/setup"
)

type navEntry struct {
	view  appView
	name  string
	icon  *widget.Icon
	click widget.Clickable
}

// fieldRow is the enumeration control of one visible register field.
type fieldRow struct {
	field regform.PresentedField
	btn   widget.Clickable
	menu  *menu.DropdownMenu
}

// App drives the Gio-based setup wizard.
type App struct {
	Window *app.Window
	Theme  *theme.Theme
	State  *AppState

	ctrl *Controller
	ops  op.Ops

	chipList  widget.List
	fieldList widget.List
	logList   layout.List
	chipClick map[string]*widget.Clickable

	rows        []*fieldRow
	rowsFor     string
	clockEditor widget.Editor
	saveBtn     widget.Clickable
	backBtn     widget.Clickable
	scanBtn     widget.Clickable

	logPaneHeight float32
	logSplitter   gesture.Drag
	logSplitLastY float32
	logSplitDrag  bool

	currentView appView
	navEntries  []navEntry
}

// New wires the Gio window, theme, and controller together.
func New(window *app.Window, ctrl *Controller) *App {
	gv := theme.NewTheme("", nil, true)
	gv.WithPalette(theme.Palette{
		Bg:         color.NRGBA{R: 245, G: 247, B: 253, A: 255},
		Fg:         color.NRGBA{R: 34, G: 37, B: 49, A: 255},
		ContrastBg: color.NRGBA{R: 80, G: 120, B: 255, A: 255},
		ContrastFg: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Bg2:        color.NRGBA{R: 225, G: 230, B: 244, A: 255},
	})
	a := &App{
		Window:      window,
		Theme:       gv,
		State:       ctrl.State(),
		ctrl:        ctrl,
		chipList:    widget.List{List: layout.List{Axis: layout.Vertical}},
		fieldList:   widget.List{List: layout.List{Axis: layout.Vertical}},
		logList:     layout.List{Axis: layout.Vertical, ScrollToEnd: true},
		chipClick:   make(map[string]*widget.Clickable),
		clockEditor: widget.Editor{SingleLine: true, Submit: true},
		currentView: ctrl.State().SelectedView(),
	}
	a.initNavigation()
	return a
}

func makeIcon(data []byte, name string) *widget.Icon {
	icon, err := widget.NewIcon(data)
	if err != nil {
		log.Printf("ui: failed to load %s icon: %v", name, err)
		return nil
	}
	return icon
}

// Run processes Gio events until the window is closed.
func (a *App) Run() error {
	for {
		e := a.Window.Event()
		switch ev := e.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&a.ops, ev)
			a.layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

func (a *App) initNavigation() {
	a.navEntries = []navEntry{
		{view: viewChips, name: "MCU", icon: makeIcon(icons.HardwareMemory, "mcu")},
		{view: viewRegisters, name: "Registers", icon: makeIcon(icons.ActionSettingsInputComponent, "registers")},
		{view: viewProbes, name: "Probes", icon: makeIcon(icons.HardwareDeveloperBoard, "probes")},
	}
}

func (a *App) selectNav(view appView) {
	a.currentView = view
	a.State.SetView(view)
	a.invalidate()
}

func (a *App) layout(gtx layout.Context) layout.Dimensions {
	state := a.State.Snapshot()
	a.currentView = state.SelectedView
	a.syncRows(state)

	paint.FillShape(gtx.Ops, color.NRGBA{R: 238, G: 241, B: 251, A: 255}, clip.Rect{Max: gtx.Constraints.Max}.Op())

	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return a.layoutNavigation(gtx)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return a.layoutTopBar(gtx, state)
				}),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return layout.Inset{Left: unit.Dp(12), Right: unit.Dp(12), Bottom: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
						return a.layoutCenteredCard(gtx, func(gtx layout.Context) layout.Dimensions {
							return a.layoutWorkspace(gtx, state)
						})
					})
				}),
				layout.Rigid(a.layoutLogSplitter),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return a.layoutLogPane(gtx, state)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return a.layoutStatus(gtx, state)
				}),
			)
		}),
	)
}

func (a *App) layoutNavigation(gtx layout.Context) layout.Dimensions {
	width := gtx.Dp(unit.Dp(150))
	gtx.Constraints.Min.X = width
	gtx.Constraints.Max.X = width
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, color.NRGBA{R: 45, G: 50, B: 68, A: 255}, clip.Rect{Max: gtx.Constraints.Max}.Op())
			return layout.Dimensions{Size: gtx.Constraints.Max}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Top: unit.Dp(24), Bottom: unit.Dp(24), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				children := make([]layout.FlexChild, 0, len(a.navEntries)*2)
				for i := range a.navEntries {
					entry := &a.navEntries[i]
					children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return a.layoutNavEntry(gtx, entry)
					}))
					children = append(children, layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout))
				}
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
			})
		}),
	)
}

func (a *App) layoutNavEntry(gtx layout.Context, entry *navEntry) layout.Dimensions {
	for entry.click.Clicked(gtx) {
		a.selectNav(entry.view)
	}

	width := gtx.Constraints.Max.X
	height := gtx.Dp(unit.Dp(48))
	size := image.Pt(width, height)
	gtx.Constraints.Min = size
	gtx.Constraints.Max = size

	bg := color.NRGBA{R: 45, G: 50, B: 68, A: 255}
	if entry.click.Hovered() {
		bg = color.NRGBA{R: 60, G: 66, B: 88, A: 255}
	}
	if a.currentView == entry.view {
		bg = color.NRGBA{R: 0, G: 180, B: 200, A: 255}
	}
	textColor := color.NRGBA{R: 240, G: 244, B: 255, A: 255}

	return entry.click.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Stack{}.Layout(gtx,
			layout.Expanded(func(gtx layout.Context) layout.Dimensions {
				rect := image.Rectangle{Max: size}.Inset(gtx.Dp(unit.Dp(2)))
				rr := gtx.Dp(unit.Dp(8))
				paint.FillShape(gtx.Ops, bg, clip.RRect{Rect: rect, NW: rr, NE: rr, SW: rr, SE: rr}.Op(gtx.Ops))
				return layout.Dimensions{Size: rect.Size()}
			}),
			layout.Stacked(func(gtx layout.Context) layout.Dimensions {
				return layout.Inset{Top: unit.Dp(6), Bottom: unit.Dp(6), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							size := gtx.Dp(unit.Dp(26))
							gtx.Constraints.Min = image.Pt(size, size)
							gtx.Constraints.Max = gtx.Constraints.Min
							if entry.icon != nil {
								return entry.icon.Layout(gtx, textColor)
							}
							return layout.Dimensions{Size: image.Pt(size, size)}
						}),
						layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							lbl := material.Body2(a.Theme.Theme, entry.name)
							lbl.Color = textColor
							lbl.Alignment = text.Start
							return lbl.Layout(gtx)
						}),
					)
				})
			}),
		)
	})
}

func (a *App) layoutTopBar(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	title := "Microcontroller Setup"
	if state.SelectedChip != "" {
		title = fmt.Sprintf("Microcontroller Setup: %s", state.SelectedChip)
	}
	return layout.Inset{Top: unit.Dp(12), Bottom: unit.Dp(8), Left: unit.Dp(16), Right: unit.Dp(16)}.Layout(gtx,
		material.H6(a.Theme.Theme, title).Layout)
}

func (a *App) layoutCenteredCard(gtx layout.Context, body layout.Widget) layout.Dimensions {
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			rr := gtx.Dp(unit.Dp(12))
			paint.FillShape(gtx.Ops, color.NRGBA{R: 248, G: 248, B: 253, A: 255}, clip.RRect{
				Rect: image.Rectangle{Max: gtx.Constraints.Max},
				NW:   rr, NE: rr, SW: rr, SE: rr,
			}.Op(gtx.Ops))
			return layout.Dimensions{Size: gtx.Constraints.Max}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(16)).Layout(gtx, body)
		}),
	)
}

func (a *App) layoutWorkspace(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	switch state.SelectedView {
	case viewRegisters:
		return a.layoutRegisters(gtx, state)
	case viewProbes:
		return a.layoutProbes(gtx, state)
	default:
		return a.layoutChips(gtx, state)
	}
}

func (a *App) layoutChips(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(material.H5(a.Theme.Theme, "Select a microcontroller").Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			if len(state.Chips) == 0 {
				return material.Body2(a.Theme.Theme, "The catalog is empty.").Layout(gtx)
			}
			return material.List(a.Theme.Theme, &a.chipList).Layout(gtx, len(state.Chips), func(gtx layout.Context, idx int) layout.Dimensions {
				chip := state.Chips[idx]
				clk := a.chipClickable(chip.Name)
				for clk.Clicked(gtx) {
					if err := a.ctrl.SelectChip(chip.Name); err == nil {
						a.clockEditor.SetText(a.ctrl.Session().DefaultClock())
					}
					a.invalidate()
				}
				label := fmt.Sprintf("%s    %s, %s", chip.Name, chip.Family, chip.Target)
				if chip.Description != "" {
					label += "    " + chip.Description
				}
				return layout.Inset{Bottom: unit.Dp(6)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					gtx.Constraints.Min.X = gtx.Constraints.Max.X
					btn := material.Button(a.Theme.Theme, clk, label)
					btn.Background = color.NRGBA{R: 60, G: 64, B: 76, A: 255}
					return btn.Layout(gtx)
				})
			})
		}),
	)
}

// syncRows rebuilds the field controls when the configured chip changes.
func (a *App) syncRows(state StateSnapshot) {
	if state.SelectedChip == a.rowsFor {
		return
	}
	a.rowsFor = state.SelectedChip
	a.rows = nil
	s := a.ctrl.Session()
	if s == nil {
		return
	}
	for i, f := range s.Form.Fields() {
		row := &fieldRow{field: f}
		row.menu = a.buildFieldMenu(i, f)
		a.rows = append(a.rows, row)
	}
}

func (a *App) buildFieldMenu(fieldIdx int, f regform.PresentedField) *menu.DropdownMenu {
	if len(f.Options) == 0 {
		return nil
	}
	opts := make([]menu.MenuOption, 0, len(f.Options))
	for i, o := range f.Options {
		idx := i
		label := fmt.Sprintf("%s  (%s)", o.Label, o.Value)
		opts = append(opts, menu.MenuOption{
			OnClicked: func() error {
				s := a.ctrl.Session()
				if s == nil || a.State.Busy() {
					return nil
				}
				if err := s.Form.Select(fieldIdx, idx); err != nil {
					return err
				}
				a.invalidate()
				return nil
			},
			Layout: func(gtx menu.C, th *theme.Theme) menu.D {
				lbl := material.Body1(th.Theme, label)
				if s := a.ctrl.Session(); s != nil && s.Form.Selected(fieldIdx) == idx {
					lbl.Color = th.Palette.ContrastBg
				}
				return layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4)}.Layout(gtx, lbl.Layout)
			},
		})
	}
	drop := menu.NewDropdownMenu([][]menu.MenuOption{opts})
	drop.MaxWidth = unit.Dp(320)
	return drop
}

func (a *App) layoutRegisters(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	s := a.ctrl.Session()
	if s == nil {
		return material.Body1(a.Theme.Theme, "Select a microcontroller first.").Layout(gtx)
	}
	form := gtx
	if state.Busy {
		// No edits while a save is in flight.
		form = gtx.Disabled()
	}

	for a.backBtn.Clicked(form) {
		a.ctrl.Back()
		a.invalidate()
	}
	for a.saveBtn.Clicked(form) {
		err := a.ctrl.StartSave(context.Background(), a.clockEditor.Text(), func(*setup.Report, error) {
			a.invalidate()
		})
		if err == nil {
			a.invalidate()
		}
	}

	return layout.Flex{Axis: layout.Vertical}.Layout(form,
		layout.Rigid(material.H5(a.Theme.Theme, fmt.Sprintf("%s register configuration", s.Chip.Name)).Layout),
		layout.Rigid(material.Body2(a.Theme.Theme, fmt.Sprintf("%s · %s · %s", s.Chip.Vendor, s.Chip.Target, s.Chip.SystemProfile)).Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			if len(a.rows) == 0 {
				return material.Body2(a.Theme.Theme, "No editable fields.").Layout(gtx)
			}
			return material.List(a.Theme.Theme, &a.fieldList).Layout(gtx, len(a.rows), func(gtx layout.Context, idx int) layout.Dimensions {
				return a.layoutFieldRow(gtx, idx)
			})
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(material.Body1(a.Theme.Theme, "Clock (MHz)").Layout),
				layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					gtx.Constraints.Min.X = gtx.Dp(unit.Dp(120))
					gtx.Constraints.Max.X = gtx.Constraints.Min.X
					ed := material.Editor(a.Theme.Theme, &a.clockEditor, "MHz")
					return widget.Border{Color: color.NRGBA{R: 180, G: 186, B: 204, A: 255}, CornerRadius: unit.Dp(6), Width: unit.Dp(1)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
						return layout.UniformInset(unit.Dp(6)).Layout(gtx, ed.Layout)
					})
				}),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions { return layout.Dimensions{} }),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					btn := material.Button(a.Theme.Theme, &a.backBtn, "Back to MCU selection")
					btn.Background = color.NRGBA{R: 60, G: 64, B: 76, A: 255}
					return btn.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					label := "Save"
					if state.Busy {
						label = "Saving..."
					}
					btn := material.Button(a.Theme.Theme, &a.saveBtn, label)
					return btn.Layout(gtx)
				}),
			)
		}),
	)
}

func (a *App) layoutFieldRow(gtx layout.Context, idx int) layout.Dimensions {
	row := a.rows[idx]
	s := a.ctrl.Session()
	current := "(none)"
	if s != nil {
		if sel := s.Form.Selected(idx); sel >= 0 && sel < len(row.field.Options) {
			current = row.field.Options[sel].Label
		}
	}
	if len(row.field.Options) == 0 {
		current = "(no settings)"
	}

	return layout.Inset{Bottom: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
					layout.Rigid(material.Body1(a.Theme.Theme, row.field.Label).Layout),
					layout.Rigid(material.Caption(a.Theme.Theme, fmt.Sprintf("%s  mask %s", row.field.Ref(), row.field.Mask)).Layout),
				)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				gtx.Constraints.Min.X = gtx.Dp(unit.Dp(240))
				if row.menu != nil && row.btn.Clicked(gtx) {
					row.menu.ToggleVisibility(gtx)
				}
				dims := material.Button(a.Theme.Theme, &row.btn, current).Layout(gtx)
				if row.menu != nil {
					row.menu.Layout(gtx, a.Theme)
				}
				return dims
			}),
		)
	})
}

func (a *App) layoutProbes(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	for a.scanBtn.Clicked(gtx) {
		go func() {
			_ = a.ctrl.ScanProbes(context.Background())
			a.invalidate()
		}()
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(material.H5(a.Theme.Theme, "Debug probes").Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
		layout.Rigid(material.Body2(a.Theme.Theme, "ST-Link, CMSIS-DAP and J-Link probes attached over USB.").Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if state.Busy {
				gtx = gtx.Disabled()
			}
			label := "Scan for probes"
			if state.Busy {
				label = "Scanning..."
			}
			return material.Button(a.Theme.Theme, &a.scanBtn, label).Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			if len(state.Probes) == 0 {
				return material.Body2(a.Theme.Theme, "No probes detected yet.").Layout(gtx)
			}
			children := make([]layout.FlexChild, 0, len(state.Probes))
			for _, p := range state.Probes {
				line := fmt.Sprintf("%s  %s  interface/%s", p.Label(), p.Location(), p.OpenOCDInterface)
				children = append(children, layout.Rigid(material.Body1(a.Theme.Theme, line).Layout))
			}
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
		}),
	)
}

func (a *App) layoutLogPane(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	a.ensureLogPaneHeight(gtx)
	height := int(a.logPaneHeight)
	if h := gtx.Constraints.Max.Y; h > 0 && height > h {
		height = h
	}
	gtx.Constraints.Min.Y = height
	gtx.Constraints.Max.Y = height
	return layout.Inset{Left: unit.Dp(16), Right: unit.Dp(16), Top: unit.Dp(6), Bottom: unit.Dp(6)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		if len(state.Logs) == 0 {
			return material.Caption(a.Theme.Theme, "Logs will appear here.").Layout(gtx)
		}
		return a.logList.Layout(gtx, len(state.Logs), func(gtx layout.Context, idx int) layout.Dimensions {
			lbl := material.Caption(a.Theme.Theme, state.Logs[idx])
			lbl.Color = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
			return lbl.Layout(gtx)
		})
	})
}

func (a *App) layoutLogSplitter(gtx layout.Context) layout.Dimensions {
	height := gtx.Dp(unit.Dp(8))
	size := image.Pt(gtx.Constraints.Max.X, height)
	rect := clip.Rect{Max: size}
	paint.FillShape(gtx.Ops, color.NRGBA{R: 210, G: 214, B: 228, A: 255}, rect.Op())

	stack := rect.Push(gtx.Ops)
	a.logSplitter.Add(gtx.Ops)
	stack.Pop()

	if ev, ok := a.logSplitter.Update(gtx.Metric, gtx.Source, gesture.Vertical); ok {
		switch ev.Kind {
		case pointer.Press:
			a.logSplitDrag = true
			a.logSplitLastY = ev.Position.Y
		case pointer.Drag:
			if a.logSplitDrag {
				dy := ev.Position.Y - a.logSplitLastY
				a.logSplitLastY = ev.Position.Y
				a.logPaneHeight -= dy
				a.clampLogPaneHeight(gtx)
				a.invalidate()
			}
		case pointer.Release, pointer.Cancel:
			a.logSplitDrag = false
		}
	}
	return layout.Dimensions{Size: size}
}

func (a *App) ensureLogPaneHeight(gtx layout.Context) {
	if a.logPaneHeight > 0 {
		return
	}
	a.logPaneHeight = float32(gtx.Dp(unit.Dp(140)))
	a.clampLogPaneHeight(gtx)
}

func (a *App) clampLogPaneHeight(gtx layout.Context) {
	lo := float32(gtx.Dp(unit.Dp(60)))
	hi := float32(gtx.Dp(unit.Dp(400)))
	if a.logPaneHeight < lo {
		a.logPaneHeight = lo
	}
	if a.logPaneHeight > hi {
		a.logPaneHeight = hi
	}
}

func (a *App) layoutStatus(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	statusLabel := fmt.Sprintf("Status: %s", state.Status)
	chipLabel := "MCU: none"
	if state.SelectedChip != "" {
		chipLabel = fmt.Sprintf("MCU: %s", state.SelectedChip)
	}
	outLabel := ""
	if state.LastOutput != "" {
		outLabel = fmt.Sprintf("Output: %s", state.LastOutput)
	}
	errLabel := ""
	if state.LastError != nil {
		errLabel = state.LastError.Error()
	}

	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, color.NRGBA{R: 230, G: 234, B: 244, A: 255}, clip.Rect{Max: gtx.Constraints.Max}.Op())
			return layout.Dimensions{Size: gtx.Constraints.Max}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			inset := layout.Inset{Left: unit.Dp(16), Right: unit.Dp(16), Top: unit.Dp(8), Bottom: unit.Dp(8)}
			return inset.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(material.Body2(a.Theme.Theme, "Version: "+state.AppVersion).Layout),
					layout.Rigid(layout.Spacer{Width: unit.Dp(18)}.Layout),
					layout.Rigid(material.Body2(a.Theme.Theme, chipLabel).Layout),
					layout.Rigid(layout.Spacer{Width: unit.Dp(18)}.Layout),
					layout.Rigid(material.Body2(a.Theme.Theme, outLabel).Layout),
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						if errLabel == "" {
							return layout.Dimensions{}
						}
						lbl := material.Body2(a.Theme.Theme, errLabel)
						lbl.Color = color.NRGBA{R: 200, G: 40, B: 40, A: 255}
						lbl.Alignment = text.Middle
						lbl.MaxLines = 1
						return lbl.Layout(gtx)
					}),
					layout.Rigid(material.Body2(a.Theme.Theme, statusLabel).Layout),
				)
			})
		}),
	)
}

func (a *App) chipClickable(name string) *widget.Clickable {
	if clk, ok := a.chipClick[name]; ok {
		return clk
	}
	clk := &widget.Clickable{}
	a.chipClick[name] = clk
	return clk
}

// invalidate requests a new frame.
func (a *App) invalidate() {
	if a.Window != nil {
		a.Window.Invalidate()
	}
}
