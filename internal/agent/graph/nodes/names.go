package nodes

// Node names used when wiring the cycle graph.
const (
	NodeIntake      = "Intake"
	NodeLoadContext = "LoadContext"
	NodeDecide      = "Decide"
	NodeRetrieve    = "Retrieve"
	NodeTools       = "ToolExecutor"
	NodeCompose     = "Compose"
	NodeEscalate    = "Escalate"
	NodeMemory      = "MemoryWrite"
	NodeFinalize    = "Finalize"
)
