package routing

// DefaultRoutes is the instrument type table used when no configuration
// file provides one. Order matters: see Router.Resolve.
var DefaultRoutes = []Route{
	{Type: "GLMXC", SubPath: "/Concentrations/Glomax/"},
	{Type: "QBTC", SubPath: "/Concentrations/Qubit/"},
	{Type: "QBT2C", SubPath: "/Concentrations/Qubit/"},
	{Type: "qPCRC", SubPath: "/Concentrations/qPCR/"},
	{Type: "PCGRNC", SubPath: "/Concentrations/Picogreen/"},
	{Type: "TRNNC", SubPath: "/Concentrations/Trinean/"},
	{Type: "5NMPPL", SubPath: "/Layouts/Default/"},
	{Type: "ADPRL", SubPath: "/Layouts/Default/"},
	{Type: "BANLRL", SubPath: "/Layouts/Multi/"},
	{Type: "CLPRL", SubPath: "/Layouts/Default/"},
	{Type: "DFLTL", SubPath: "/Layouts/Default/"},
	{Type: "ENDRL", SubPath: "/Layouts/Default/"},
	{Type: "FLML", SubPath: "/Layouts/Default/"},
	{Type: "FNLPLL", SubPath: "/Layouts/Pooling/"},
	{Type: "GLMXL", SubPath: "/Layouts/Multi/"},
	{Type: "PCRL", SubPath: "/Layouts/Default/"},
	{Type: "PHWL", SubPath: "/Layouts/Default/"},
	{Type: "PLNMNL", SubPath: "/Layouts/Pooling/"},
	{Type: "PLSMPL", SubPath: "/Layouts/Pooling/"},
	{Type: "qPCRL", SubPath: "/Layouts/Default/"},
}

// DefaultGroups lists the lab groups served when no configuration file
// provides them.
var DefaultGroups = []string{"NGS"}

// DefaultTable builds a Table from DefaultRoutes and DefaultGroups.
func DefaultTable() *Table {
	return MustTable(DefaultRoutes, DefaultGroups)
}
