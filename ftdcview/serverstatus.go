// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// serverstatus.go

// Package ftdcview projects decoded FTDC samples into the typed document
// shapes MongoDB's own diagnostics expose (serverStatus, systemMetrics),
// rather than leaving callers to grovel through dotted metric names.
package ftdcview

import (
	"strings"
	"time"

	"github.com/simagix/mongo-ftdc-core/decoder"
)

// ServerStatus is the subset of MongoDB's serverStatus document this
// project cares about, restored from one sample row of a decoded chunk.
type ServerStatus struct {
	LocalTime time.Time

	Mem struct {
		Resident int64
		Virtual  int64
	}

	Network struct {
		BytesIn             int64
		BytesOut            int64
		NumRequests         int64
		PhysicalBytesIn     int64
		PhysicalBytesOut    int64
	}

	Connections struct {
		Current      int64
		Available    int64
		TotalCreated int64
		Active       int64
	}

	GlobalLock struct {
		ActiveClients struct {
			Readers int64
			Writers int64
		}
		CurrentQueue struct {
			Readers int64
			Writers int64
		}
	}

	OpCounters struct {
		Insert  int64
		Query   int64
		Update  int64
		Delete  int64
		Getmore int64
		Command int64
	}

	Uptime int64
}

// ServerStatusFromSample projects the serverStatus.* columns of one
// decoded sample into a ServerStatus value (grounded on the simagix
// Attribs.GetServerStatusDataPoints projection, adapted to the dotted
// path scheme and int64 values this core produces).
func ServerStatusFromSample(s decoder.Sample) ServerStatus {
	m := s.Map()
	ss := ServerStatus{}
	ss.LocalTime = time.UnixMilli(get(m, "serverStatus.localTime"))
	ss.Mem.Resident = get(m, "serverStatus.mem.resident")
	ss.Mem.Virtual = get(m, "serverStatus.mem.virtual")
	ss.Network.BytesIn = get(m, "serverStatus.network.bytesIn")
	ss.Network.BytesOut = get(m, "serverStatus.network.bytesOut")
	ss.Network.NumRequests = get(m, "serverStatus.network.numRequests")
	ss.Network.PhysicalBytesIn = get(m, "serverStatus.network.physicalBytesIn")
	ss.Network.PhysicalBytesOut = get(m, "serverStatus.network.physicalBytesOut")
	ss.Connections.Current = get(m, "serverStatus.connections.current")
	ss.Connections.Available = get(m, "serverStatus.connections.available")
	ss.Connections.TotalCreated = get(m, "serverStatus.connections.totalCreated")
	ss.Connections.Active = get(m, "serverStatus.connections.active")
	ss.GlobalLock.ActiveClients.Readers = get(m, "serverStatus.globalLock.activeClients.readers")
	ss.GlobalLock.ActiveClients.Writers = get(m, "serverStatus.globalLock.activeClients.writers")
	ss.GlobalLock.CurrentQueue.Readers = get(m, "serverStatus.globalLock.currentQueue.readers")
	ss.GlobalLock.CurrentQueue.Writers = get(m, "serverStatus.globalLock.currentQueue.writers")
	ss.OpCounters.Insert = get(m, "serverStatus.opcounters.insert")
	ss.OpCounters.Query = get(m, "serverStatus.opcounters.query")
	ss.OpCounters.Update = get(m, "serverStatus.opcounters.update")
	ss.OpCounters.Delete = get(m, "serverStatus.opcounters.delete")
	ss.OpCounters.Getmore = get(m, "serverStatus.opcounters.getmore")
	ss.OpCounters.Command = get(m, "serverStatus.opcounters.command")
	ss.Uptime = get(m, "serverStatus.uptime")
	return ss
}

// DiskMetrics is one disk's counters from systemMetrics.disks.<name>.*.
type DiskMetrics struct {
	ReadTimeMS   int64
	WriteTimeMS  int64
	IOTimeMS     int64
	Reads        int64
	Writes       int64
	IOInProgress int64
}

// SystemMetrics is the subset of MongoDB's systemMetrics document this
// project cares about, restored from one sample row of a decoded chunk.
type SystemMetrics struct {
	CPU struct {
		IdleMS    int64
		UserMS    int64
		IOWaitMS  int64
		SystemMS  int64
	}
	Disks map[string]DiskMetrics
}

// SystemMetricsFromSample projects the systemMetrics.* columns of one
// decoded sample into a SystemMetrics value, discovering disk names from
// whatever systemMetrics.disks.<name>.* columns are present rather than
// assuming a fixed set (grounded on Attribs.GetSystemMetricsDataPoints).
func SystemMetricsFromSample(s decoder.Sample) SystemMetrics {
	sm := SystemMetrics{Disks: map[string]DiskMetrics{}}
	m := s.Map()
	sm.CPU.IdleMS = get(m, "systemMetrics.cpu.idle_ms")
	sm.CPU.UserMS = get(m, "systemMetrics.cpu.user_ms")
	sm.CPU.IOWaitMS = get(m, "systemMetrics.cpu.iowait_ms")
	sm.CPU.SystemMS = get(m, "systemMetrics.cpu.system_ms")

	const prefix = "systemMetrics.disks."
	for key, v := range m {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.SplitN(key[len(prefix):], decoder.PathSeparator, 2)
		if len(rest) != 2 {
			continue
		}
		disk, stat := rest[0], rest[1]
		d := sm.Disks[disk]
		switch stat {
		case "read_time_ms":
			d.ReadTimeMS = v
		case "write_time_ms":
			d.WriteTimeMS = v
		case "io_time_ms":
			d.IOTimeMS = v
		case "reads":
			d.Reads = v
		case "writes":
			d.Writes = v
		case "io_in_progress":
			d.IOInProgress = v
		}
		sm.Disks[disk] = d
	}
	return sm
}

func get(m map[string]int64, key string) int64 {
	return m[key]
}
