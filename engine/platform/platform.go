package platform

import (
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window
}

func New() (*Platform, error) {
	return &Platform{
		Window: nil,
	}, nil
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogFatal("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogFatal("failed to create window: %s", err)
		return err
	}
	p.Window = window
	p.Window.SetPos(int(x), int(y))

	return nil
}

func (p *Platform) Shutdown() error {
	p.Window.Destroy()
	glfw.Terminate()
	return nil
}

func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

// GetRequiredExtensionNames lists the instance extensions the windowing
// system needs, VK_KHR_surface included.
func (p *Platform) GetRequiredExtensionNames() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// InstanceProcAddr exposes the loader entry point Vulkan initialization
// needs before any instance exists.
func (p *Platform) InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) CreateVulkanSurface(instance vk.Instance) (uintptr, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		core.LogError("Vulkan surface creation failed: %s", err)
		return 0, err
	}
	return surface, nil
}

// FramebufferSize returns the window's framebuffer dimensions in pixels.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// OnFramebufferResize installs a callback invoked whenever the framebuffer
// changes size. The renderer owner forwards this to HandleResize.
func (p *Platform) OnFramebufferResize(fn func(width, height uint32)) {
	p.Window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		fn(uint32(width), uint32(height))
	})
}

func (p *Platform) ShouldClose() bool {
	return p.Window.ShouldClose()
}
