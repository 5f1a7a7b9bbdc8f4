package startpoint

const (
	// LabelKey marks a volume as a cyber-dojo start-point.
	LabelKey = "cyber-dojo-start-point"

	// MountPath is where the helper container mounts the volume.
	MountPath = "/data"

	// ManifestFilename is the manifest file at the root of the volume.
	ManifestFilename = "start_point_type.json"
)

// Volume is the subset of the runtime's volume inspect record the CLI reads.
type Volume struct {
	// Name is the volume name.
	Name string `json:"Name"`
	// Driver is the volume driver, usually "local".
	Driver string `json:"Driver"`
	// Mountpoint is the location of the volume on the runtime host.
	Mountpoint string `json:"Mountpoint"`
	// Scope is "local" or "global".
	Scope string `json:"Scope"`
	// Labels is absent (nil) for unlabeled volumes.
	Labels map[string]string `json:"Labels"`
}

// IsStartPoint reports whether the volume carries the start-point label.
// A nil volume or an absent labels map is simply not a start-point.
func (v *Volume) IsStartPoint() bool {
	if v == nil || v.Labels == nil {
		return false
	}

	_, ok := v.Labels[LabelKey]

	return ok
}

// Label returns the start-point label value. Call IsStartPoint first.
func (v *Volume) Label() string {
	if v == nil {
		return ""
	}

	return v.Labels[LabelKey]
}
