//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderSources = []string{
	"shaders/lighting.vert",
	"shaders/lighting.frag",
	"shaders/line.vert",
	"shaders/line.frag",
	"shaders/culling.comp",
}

// Compiles every GLSL source in shaders/ to SPIR-V next to it.
func (Build) Shaders() error {
	for _, source := range shaderSources {
		if _, err := executeCmd("glslc", withArgs("--target-env=vulkan1.1", source, "-o", source+".spv"), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// Builds the testbed binary.
func (Build) Testbed() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", "vetro-testbed", "."), withStream()); err != nil {
		return err
	}
	return nil
}
