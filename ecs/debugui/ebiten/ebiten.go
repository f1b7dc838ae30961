// Package ebiten runs a tickworks Engine inside an Ebiten game loop with a Dear ImGui overlay.
package ebiten

import (
	"time"

	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/plus3/tickworks/engine"
	"github.com/plus3/tickworks/input"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

var mouseButtons = []struct {
	button ebiten.MouseButton
	code   string
}{
	{ebiten.MouseButtonLeft, "Primary"},
	{ebiten.MouseButtonRight, "Secondary"},
	{ebiten.MouseButtonMiddle, "Middle"},
}

// Game implements ebiten.Game. Each Update begins an ImGui frame, forwards device input to
// the engine's InputManager, runs one engine tick and ends the frame.
type Game struct {
	Engine  *engine.Engine
	Backend ImguiBackend
	// DrawWorld draws game content below the ImGui overlay.
	DrawWorld func(screen *ebiten.Image)

	keys     []ebiten.Key
	lastX    int
	lastY    int
	lastTime time.Time
	log      *zap.Logger
}

func NewGame(e *engine.Engine, backend *ebitenbackend.EbitenBackend, log *zap.Logger) *Game {
	if log == nil {
		log = zap.NewNop()
	}
	return &Game{
		Engine:  e,
		Backend: ImguiBackend{EbitenBackend: backend},
		log:     log,
	}
}

func (g *Game) Update() error {
	now := time.Now()
	dt := 1.0 / float64(ebiten.TPS())
	if !g.lastTime.IsZero() {
		dt = now.Sub(g.lastTime).Seconds()
	}
	g.lastTime = now

	g.Backend.BeginFrame()
	io := imgui.CurrentIO()
	if !io.WantCaptureKeyboard() {
		g.postKeys(now)
	}
	if !io.WantCaptureMouse() {
		g.postMouse(now)
	}

	report := g.Engine.Tick(dt)
	if err := report.Err(); err != nil {
		g.log.Debug("tick reported failures", zap.Uint64("tick", report.Tick), zap.Error(err))
	}

	g.Backend.EndFrame()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.DrawWorld != nil {
		g.DrawWorld(screen)
	}
	g.Backend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.Backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func (g *Game) postKeys(now time.Time) {
	mods := modifiers()
	in := g.Engine.Input()

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		in.Post(input.Event{Device: input.Keyboard, Code: k.String(), Action: input.Press, Modifiers: mods, Time: now})
	}
	g.keys = inpututil.AppendJustReleasedKeys(g.keys[:0])
	for _, k := range g.keys {
		in.Post(input.Event{Device: input.Keyboard, Code: k.String(), Action: input.Release, Modifiers: mods, Time: now})
	}
}

func (g *Game) postMouse(now time.Time) {
	mods := modifiers()
	in := g.Engine.Input()
	x, y := ebiten.CursorPosition()
	base := input.Event{Device: input.Mouse, Modifiers: mods, X: float64(x), Y: float64(y), Time: now}

	if x != g.lastX || y != g.lastY {
		ev := base
		ev.Action = input.Move
		in.Post(ev)
		g.lastX, g.lastY = x, y
	}

	for _, b := range mouseButtons {
		ev := base
		ev.Code = b.code
		switch {
		case inpututil.IsMouseButtonJustPressed(b.button):
			ev.Action = input.Press
		case inpututil.IsMouseButtonJustReleased(b.button):
			ev.Action = input.Release
		default:
			continue
		}
		in.Post(ev)
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		ev := base
		ev.Action = input.Scroll
		ev.Code = "WheelDown"
		if wy > 0 {
			ev.Code = "WheelUp"
		}
		in.Post(ev)
	}
}

func modifiers() input.Modifier {
	var mods input.Modifier
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= input.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= input.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= input.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= input.ModMeta
	}
	return mods
}
