package tinygo

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cornelk/hashmap"
	"tinygo.org/x/bluetooth"

	"github.com/srg/blescale/internal/device"
)

// scanRecord is one advertisement reduced to what the manager needs.
// services holds only the filter UUIDs the advertisement matched; tinygo
// cannot list advertised services, it can only test for one.
type scanRecord struct {
	id       string
	name     string
	rssi     int
	services []string
	manuf    []byte
}

// peer is an established link; the concrete tinygo device type differs between releases.
type peer interface {
	Disconnect() error
}

// radio is the subset of a tinygo adapter the manager drives.
type radio interface {
	Enable() error
	// Scan blocks until StopScan is called. A non-empty services list drops
	// advertisements matching none of them.
	Scan(services []string, fn func(scanRecord)) error
	StopScan() error
	Connect(id string) (peer, error)
	// OnDisconnect registers fn for peripheral-initiated disconnects.
	OnDisconnect(fn func(id string))
}

var _ radio = (*adapterRadio)(nil)

// adapterRadio adapts *bluetooth.Adapter. Scan results are the only source
// of connectable addresses, so they are remembered by identifier.
type adapterRadio struct {
	adapter *bluetooth.Adapter
	seen    *hashmap.Map[string, bluetooth.Address]

	mu           sync.Mutex
	onDisconnect func(id string)
}

func newAdapterRadio(a *bluetooth.Adapter) *adapterRadio {
	return &adapterRadio{
		adapter: a,
		seen:    hashmap.New[string, bluetooth.Address](),
	}
}

func (r *adapterRadio) Enable() error {
	if err := r.adapter.Enable(); err != nil {
		return err
	}
	r.adapter.SetConnectHandler(func(d bluetooth.Device, connected bool) {
		if connected {
			return
		}
		r.mu.Lock()
		fn := r.onDisconnect
		r.mu.Unlock()
		if fn != nil {
			fn(d.Address.String())
		}
	})
	return nil
}

func (r *adapterRadio) Scan(services []string, fn func(scanRecord)) error {
	wanted, err := parseServiceUUIDs(services)
	if err != nil {
		return err
	}
	return r.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		matched := matchServices(result.AdvertisementPayload.HasServiceUUID, wanted)
		if len(wanted) > 0 && len(matched) == 0 {
			return
		}

		id := result.Address.String()
		r.seen.Set(id, result.Address)

		rec := scanRecord{
			id:       id,
			name:     result.LocalName(),
			rssi:     int(result.RSSI),
			services: matched,
		}
		for _, m := range result.ManufacturerData() {
			rec.manuf = append(rec.manuf, encodeManufacturerData(m.CompanyID, m.Data)...)
		}
		fn(rec)
	})
}

// serviceUUID pairs a parsed filter UUID with its normalized string form.
type serviceUUID struct {
	uuid bluetooth.UUID
	name string
}

// parseServiceUUIDs expands 16 and 32 bit UUIDs onto the SIG base and parses
// them for HasServiceUUID.
func parseServiceUUIDs(services []string) ([]serviceUUID, error) {
	if len(services) == 0 {
		return nil, nil
	}
	normalized, err := device.ValidateUUID(services...)
	if err != nil {
		return nil, err
	}
	out := make([]serviceUUID, 0, len(normalized))
	for _, n := range normalized {
		u, err := bluetooth.ParseUUID(expandUUID(n))
		if err != nil {
			return nil, fmt.Errorf("invalid service UUID %s: %w", n, err)
		}
		out = append(out, serviceUUID{uuid: u, name: n})
	}
	return out, nil
}

// expandUUID turns a normalized UUID (4, 8 or 32 hex digits) into the
// dashed 128-bit form.
func expandUUID(n string) string {
	switch len(n) {
	case 4:
		n = "0000" + n + sigBaseTail
	case 8:
		n += sigBaseTail
	}
	if len(n) != 32 {
		return n
	}
	return n[0:8] + "-" + n[8:12] + "-" + n[12:16] + "-" + n[16:20] + "-" + n[20:32]
}

const sigBaseTail = "00001000800000805f9b34fb"

// matchServices returns the names of the wanted UUIDs that has reports.
func matchServices(has func(bluetooth.UUID) bool, wanted []serviceUUID) []string {
	var matched []string
	for _, w := range wanted {
		if has(w.uuid) {
			matched = append(matched, w.name)
		}
	}
	return matched
}

func (r *adapterRadio) StopScan() error {
	return r.adapter.StopScan()
}

func (r *adapterRadio) Connect(id string) (peer, error) {
	addr, ok := r.seen.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s was not seen during scan", device.ErrUnknownDevice, id)
	}
	d, err := r.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, err
	}
	var p peer = d
	return p, nil
}

func (r *adapterRadio) OnDisconnect(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDisconnect = fn
}

// encodeManufacturerData restores the on-air layout: little-endian company
// identifier followed by the payload.
func encodeManufacturerData(companyID uint16, data []byte) []byte {
	out := make([]byte, 2, 2+len(data))
	binary.LittleEndian.PutUint16(out, companyID)
	return append(out, data...)
}
