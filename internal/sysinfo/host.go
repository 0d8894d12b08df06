package sysinfo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	pscpu "github.com/shirou/gopsutil/v4/cpu"
	psdisk "github.com/shirou/gopsutil/v4/disk"
	pshost "github.com/shirou/gopsutil/v4/host"
	psmem "github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	log "github.com/sirupsen/logrus"

	"github.com/rusenback/vitalviz/internal/model"
)

// Partition tables change rarely; usage is read per tick, the listing is not.
const partitionTTL = time.Minute

const partitionsKey = "partitions"

// HostProvider reads telemetry from the local machine via gopsutil.
type HostProvider struct {
	partitions *ttlcache.Cache[string, []psdisk.PartitionStat]

	hostMu sync.Mutex
	host   *model.HostInfo
}

// NewHostProvider returns a Provider backed by the local OS.
func NewHostProvider() *HostProvider {
	return &HostProvider{
		partitions: ttlcache.New(
			ttlcache.WithTTL[string, []psdisk.PartitionStat](partitionTTL),
		),
	}
}

// CPUPerCore returns per-core load since the previous call. gopsutil keeps
// the previous CPU times internally, so the call itself does not sleep.
func (p *HostProvider) CPUPerCore(ctx context.Context) ([]float64, error) {
	percents, err := pscpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return nil, fmt.Errorf("cpu percent: %w", err)
	}
	return percents, nil
}

func (p *HostProvider) Memory(ctx context.Context) (*model.Memory, error) {
	vm, err := psmem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}
	return &model.Memory{
		Total:     vm.Total,
		Available: vm.Available,
		Used:      vm.Used,
		Free:      vm.Free,
		Percent:   vm.UsedPercent,
	}, nil
}

func (p *HostProvider) Disks(ctx context.Context) ([]model.Disk, error) {
	parts, err := p.listPartitions(ctx)
	if err != nil {
		return nil, err
	}

	disks := make([]model.Disk, 0, len(parts))
	for _, part := range parts {
		usage, err := psdisk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil {
			// One unreadable mount must not hide the rest.
			log.Debugf("disk usage for %s: %v", part.Mountpoint, err)
			continue
		}
		disks = append(disks, model.Disk{
			Device:  part.Device,
			Mount:   part.Mountpoint,
			Fstype:  part.Fstype,
			Total:   usage.Total,
			Used:    usage.Used,
			Free:    usage.Free,
			Percent: usage.UsedPercent,
		})
	}
	sort.Slice(disks, func(i, j int) bool { return disks[i].Mount < disks[j].Mount })
	return disks, nil
}

func (p *HostProvider) listPartitions(ctx context.Context) ([]psdisk.PartitionStat, error) {
	if item := p.partitions.Get(partitionsKey); item != nil {
		return item.Value(), nil
	}
	parts, err := psdisk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("disk partitions: %w", err)
	}
	p.partitions.Set(partitionsKey, parts, ttlcache.DefaultTTL)
	return parts, nil
}

func (p *HostProvider) NetCounters(ctx context.Context) (*model.NetCounters, error) {
	ios, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("net io counters: %w", err)
	}
	if len(ios) == 0 {
		return nil, fmt.Errorf("net io counters: empty result")
	}
	total := ios[0]
	return &model.NetCounters{
		BytesSent:   total.BytesSent,
		BytesRecv:   total.BytesRecv,
		PacketsSent: total.PacketsSent,
		PacketsRecv: total.PacketsRecv,
	}, nil
}

// Host returns host identity, cached after the first successful read. Boot
// time does not change while we run; uptime is derived from it by callers.
func (p *HostProvider) Host(ctx context.Context) (model.HostInfo, error) {
	p.hostMu.Lock()
	defer p.hostMu.Unlock()
	if p.host != nil {
		return *p.host, nil
	}

	info, err := pshost.InfoWithContext(ctx)
	if err != nil {
		return model.HostInfo{}, fmt.Errorf("host info: %w", err)
	}
	h := model.HostInfo{
		Hostname:        info.Hostname,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelArch:      info.KernelArch,
		Procs:           info.Procs,
		BootTime:        time.Unix(int64(info.BootTime), 0),
	}
	p.host = &h
	return h, nil
}
