package model

import "time"

// HostInfo identifies the machine being sampled. Read once at startup and
// cached; only uptime changes afterwards.
type HostInfo struct {
	Hostname        string    `json:"hostname"`
	Platform        string    `json:"platform"`
	PlatformVersion string    `json:"platform_version"`
	KernelArch      string    `json:"kernel_arch"`
	Procs           uint64    `json:"procs"`
	BootTime        time.Time `json:"boot_time"`
}

// Uptime reports time elapsed since boot.
func (h HostInfo) Uptime() time.Duration {
	if h.BootTime.IsZero() {
		return 0
	}
	return time.Since(h.BootTime).Truncate(time.Second)
}
