package apps

// Architecture types with a dedicated icon.
const (
	ArchMainframe    = "Mainframe"
	ArchDistributed  = "Distributed"
	ArchCloudBased   = "Cloud-Based"
	ArchClientServer = "Client-Server"
	ArchStandAlone   = "Stand-Alone"
)

// DefaultIcon is used for unknown or missing architecture types.
const DefaultIcon = "vite.svg"

var iconTable = map[string]string{
	ArchMainframe:    "Buildings.svg",
	ArchDistributed:  "Stack.svg",
	ArchCloudBased:   "Wrench.svg",
	ArchClientServer: "UsersThree.svg",
	ArchStandAlone:   "ListMagnifyingGlass.svg",
}

// IconFor returns the icon reference for an architecture type.
// Lookup is exact; anything not in the table resolves to [DefaultIcon].
func IconFor(archType string) string {
	if icon, ok := iconTable[archType]; ok {
		return icon
	}
	return DefaultIcon
}

// IconRefs returns every icon reference the table can produce, including
// the default. Useful for preloading assets.
func IconRefs() []string {
	refs := make([]string, 0, len(iconTable)+1)
	for _, arch := range []string{ArchMainframe, ArchDistributed, ArchCloudBased, ArchClientServer, ArchStandAlone} {
		refs = append(refs, iconTable[arch])
	}
	return append(refs, DefaultIcon)
}
