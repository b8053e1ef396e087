package zone

// MmapZoneOptions contains optional settings when creating an MmapZone
type MmapZoneOptions struct {
	// Flags indicates specific zone behaviors to activate or deactivate
	Flags CreateFlags
}

var mmapZoneIdentity = DeclareZone("mmap")
