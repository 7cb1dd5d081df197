package build_info

// Set by the linker upon building
var (
	Version   = "dev"
	BuildDate = ""
)
