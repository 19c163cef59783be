package app

import (
	"github.com/vk/matrixci/internal/registry"
	"github.com/vk/matrixci/modules/print"
	"github.com/vk/matrixci/modules/shell"
	"github.com/vk/matrixci/modules/upload"
)

// coreModules is the definitive list of all action modules that are compiled
// into the matrixci binary.
var coreModules = []registry.Module{
	&shell.Module{},
	&print.Module{},
	&upload.Module{},
}
