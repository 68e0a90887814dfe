package main

import (
	"os"
	"runtime"

	"github.com/koyote-engine/koyote/cmd/koyote/commands"
)

func init() {
	// SDL and the Vulkan loader expect every call from the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
