// Package device defines the Bluetooth Low Energy (BLE) contract the rest of
// blescale is written against.
//
// It provides:
//   - The platform manager contract (adapter state, discovery, connect)
//   - Discovered device and connection abstractions
//   - Adapter state values and a replaying state broadcaster for backends
//   - The typed discovery/connection error taxonomy
//
// Concrete backends live in the go-ble and tinygo sub-packages.
package device
