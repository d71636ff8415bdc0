package desktop

// Windows CreateProcess flags for launched tools. The child gets its own
// process group and, for batch and console tools, its own console; GUI tools
// ignore the console flag.
const (
	createNewConsole      = 0x00000010
	createNewProcessGroup = 0x00000200
	detachedProcess       = 0x00000008

	windowsCreationFlags = createNewProcessGroup | createNewConsole
)
