package sysmon

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	gnet "github.com/shirou/gopsutil/v3/net"
)

const maxServices = 10

// Stats is the full dashboard snapshot.
type Stats struct {
	Uptime    uint64    `json:"uptime"`
	Platform  string    `json:"platform"`
	OSRelease string    `json:"osRelease"`
	Runtime   string    `json:"runtime"`
	CPU       CPUStats  `json:"cpu"`
	RAM       RAMStats  `json:"ram"`
	Disk      []DiskFS  `json:"disk"`
	Network   NetStats  `json:"network"`
	Services  []Service `json:"services"`
}

type CPUStats struct {
	Model string  `json:"model"`
	Cores int     `json:"cores"`
	Usage float64 `json:"usage"`
}

type RAMStats struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
	Free  uint64 `json:"free"`
}

type DiskFS struct {
	FS        string `json:"fs"`
	Size      uint64 `json:"size"`
	Used      uint64 `json:"used"`
	Available uint64 `json:"available"`
}

type NetStats struct {
	Download uint64 `json:"download"` // bytes/sec
	Upload   uint64 `json:"upload"`   // bytes/sec
	RxSec    uint64 `json:"rx_sec"`
	TxSec    uint64 `json:"tx_sec"`
}

// Service is one listening socket, the netstat-style view.
type Service struct {
	Proto        string `json:"proto"`
	LocalAddress string `json:"localAddress"`
	State        string `json:"state"`
	PidProgram   string `json:"pid_program"`
}

// SimpleStats is the reduced shape used by the alternative dashboard.
type SimpleStats struct {
	RAM     SimpleRAM  `json:"ram"`
	CPU     SimpleCPU  `json:"cpu"`
	Disk    SimpleDisk `json:"disk"`
	Network SimpleNet  `json:"network"`
}

type SimpleRAM struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
}

type SimpleCPU struct {
	Percent int `json:"percent"`
	Cores   int `json:"cores"`
}

type SimpleDisk struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
}

type SimpleNet struct {
	Download uint64 `json:"download"`
	Upload   uint64 `json:"upload"`
}

// Monitor reads host metrics. Network rates come from the delta between
// two counter samples, so the previous sample is kept between calls; the
// mutex keeps that baseline consistent when the stats endpoints and the
// health probe sample concurrently.
type Monitor struct {
	mu        sync.Mutex
	lastNetAt time.Time
	lastRx    uint64
	lastTx    uint64
	haveBase  bool
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// Snapshot collects the full stats view. Individual probe failures leave
// their section zeroed instead of failing the whole snapshot.
func (m *Monitor) Snapshot(ctx context.Context) *Stats {
	s := &Stats{Runtime: runtime.Version()}

	if up, err := host.UptimeWithContext(ctx); err == nil {
		s.Uptime = up
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		s.Platform = info.Platform
		s.OSRelease = info.KernelVersion
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		s.CPU.Model = infos[0].ModelName
	}
	s.CPU.Cores = runtime.NumCPU()
	if usage, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(usage) > 0 {
		s.CPU.Usage = float64(int(usage[0]*10)) / 10
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.RAM = RAMStats{Total: vm.Total, Used: vm.Used, Free: vm.Free}
	}

	if parts, err := disk.PartitionsWithContext(ctx, false); err == nil {
		for _, p := range parts {
			usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
			if err != nil {
				continue
			}
			s.Disk = append(s.Disk, DiskFS{
				FS:        p.Device,
				Size:      usage.Total,
				Used:      usage.Used,
				Available: usage.Free,
			})
		}
	}

	rx, tx := m.netRates(ctx)
	s.Network = NetStats{Download: rx, Upload: tx, RxSec: rx, TxSec: tx}
	s.Services = m.Services(ctx)
	return s
}

// Simple collects the reduced stats view.
func (m *Monitor) Simple(ctx context.Context) *SimpleStats {
	s := &SimpleStats{}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.RAM = SimpleRAM{Total: vm.Total, Used: vm.Used}
	}

	s.CPU.Cores = runtime.NumCPU()
	if usage, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(usage) > 0 {
		s.CPU.Percent = int(usage[0] + 0.5)
	}

	if usage, err := disk.UsageWithContext(ctx, "/"); err == nil {
		s.Disk = SimpleDisk{Total: usage.Total, Used: usage.Used}
	}

	rx, tx := m.netRates(ctx)
	s.Network = SimpleNet{Download: rx, Upload: tx}
	return s
}

// Services lists listening sockets, capped to keep the dashboard readable.
func (m *Monitor) Services(ctx context.Context) []Service {
	conns, err := gnet.ConnectionsWithContext(ctx, "inet")
	if err != nil {
		return nil
	}

	services := make([]Service, 0, maxServices)
	for _, c := range conns {
		if c.Status != "LISTEN" {
			continue
		}
		proto := "tcp"
		if c.Type == 2 { // SOCK_DGRAM
			proto = "udp"
		}
		services = append(services, Service{
			Proto:        proto,
			LocalAddress: fmt.Sprintf("%s:%d", c.Laddr.IP, c.Laddr.Port),
			State:        c.Status,
			PidProgram:   fmt.Sprintf("%d/-", c.Pid),
		})
		if len(services) == maxServices {
			break
		}
	}
	return services
}

// netRates derives bytes/sec from the counter delta since the last call.
// The first call has no baseline and reports zero.
func (m *Monitor) netRates(ctx context.Context) (rx, tx uint64) {
	counters, err := gnet.IOCountersWithContext(ctx, false)
	if err != nil || len(counters) == 0 {
		return 0, 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cur := counters[0]
	if m.haveBase {
		elapsed := now.Sub(m.lastNetAt).Seconds()
		if elapsed > 0 && cur.BytesRecv >= m.lastRx && cur.BytesSent >= m.lastTx {
			rx = uint64(float64(cur.BytesRecv-m.lastRx) / elapsed)
			tx = uint64(float64(cur.BytesSent-m.lastTx) / elapsed)
		}
	}
	m.lastNetAt = now
	m.lastRx = cur.BytesRecv
	m.lastTx = cur.BytesSent
	m.haveBase = true
	return rx, tx
}
