package config

import "slices"

// ReadOnlyOption is the kernel mount option every mount carries
const ReadOnlyOption = "ro"

// MountOptions holds high-level settings for read-only mounts.
// No go-fuse types are exposed here.
type MountOptions struct {
	Debug      bool     // fuse debug logs
	FsName     string   // mount's FsName, shown as the source in mount tables
	Name       string   // mount's Name, the fuse.<name> type
	AllowOther bool     // let users other than the mounting one read the mount
	Extra      []string // extra kernel options such as "noexec"
}

// KernelOptions lists the options passed to the kernel. "ro" always comes
// first and duplicates are dropped.
func (o MountOptions) KernelOptions() []string {
	opts := []string{ReadOnlyOption}
	for _, opt := range o.Extra {
		if opt == "" || opt == "rw" || slices.Contains(opts, opt) {
			continue
		}
		opts = append(opts, opt)
	}
	return opts
}
