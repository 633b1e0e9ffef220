package app

import (
	"github.com/vk/musicscripts/internal/registry"
	"github.com/vk/musicscripts/modules/kinematics"
	"github.com/vk/musicscripts/modules/perturbation"
	"github.com/vk/musicscripts/modules/profiles"
	"github.com/vk/musicscripts/modules/thermo"
)

// coreModules is the definitive list of quantity modules compiled into the
// music-scripts binary.
var coreModules = []registry.Module{
	&kinematics.Module{},
	&thermo.Module{},
	&profiles.Module{},
	&perturbation.Module{},
}
