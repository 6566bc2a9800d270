/*
Demo application driving the Vetro renderer: a grid of textured cubes with
GPU frustum culling and a wireframe line overlay.
*/
package main

import (
	"github.com/spaghettifunk/vetro/engine/core"
	"github.com/spaghettifunk/vetro/engine/platform"
	"github.com/spaghettifunk/vetro/engine/renderer"
	"github.com/spaghettifunk/vetro/testbed"
)

func main() {
	config := testbed.LoadConfig("testbed.toml")
	core.LogSetLevel(config.LogLevel)

	p, err := platform.New()
	if err != nil {
		core.LogFatal("platform creation failed: %s", err)
	}
	if err := p.Startup(config.Name, config.StartPosX, config.StartPosY, config.StartWidth, config.StartHeight); err != nil {
		core.LogFatal("platform startup failed: %s", err)
	}

	blobs, err := testbed.LoadShaderBlobs(config.ShaderDir)
	if err != nil {
		core.LogFatal("shader blobs missing (run `mage build:shaders`): %s", err)
	}

	r, err := renderer.New(config.Name, p, blobs)
	if err != nil {
		core.LogFatal("renderer initialization failed: %s", err)
	}

	p.OnFramebufferResize(func(width, height uint32) {
		if err := r.HandleResize(width, height); err != nil {
			core.LogError("resize failed: %s", err)
		}
	})

	game := testbed.NewGame(config, p, r)
	if err := game.Boot(); err != nil {
		core.LogFatal("testbed boot failed: %s", err)
	}

	core.MetricsInitialize()
	clock := core.NewClock()
	clock.Start()
	var lastElapsed float64

	for !p.ShouldClose() {
		p.PumpMessages()

		clock.Update()
		elapsed := clock.Elapsed() / 1e9
		delta := elapsed - lastElapsed
		lastElapsed = elapsed

		if err := game.Frame(float32(delta)); err != nil {
			core.LogError("frame failed: %s", err)
			break
		}

		core.MetricsUpdate(delta)
	}

	core.LogInfo("shutting down (avg frame %.2f ms, %.0f fps)", core.MetricsFrameTime(), core.MetricsFPS())
	game.Shutdown()
	if err := r.ReleaseBackend(); err != nil {
		core.LogError("backend release failed: %s", err)
	}
	p.Shutdown()
}
