package controller

import (
	"fmt"
	"strings"
)

// Labels holds every user-visible string of the scan screen.
type Labels struct {
	Title                string
	SearchButton         string
	SearchingButton      string
	UnknownDevice        string
	IDPrefix             string
	ConnectedTitle       string
	ConnectedMessage     string // %s is the device name or identifier
	ErrorTitle           string
	ConnectFailedMessage string
	AdapterTitle         string
	AdapterNotReady      string // %s is the adapter state
	NoDevices            string
}

// EnglishLabels is the default label set.
var EnglishLabels = Labels{
	Title:                "Bluetooth Scale",
	SearchButton:         "Search for devices",
	SearchingButton:      "Searching…",
	UnknownDevice:        "Unknown device",
	IDPrefix:             "ID: ",
	ConnectedTitle:       "Connected",
	ConnectedMessage:     "Successfully connected to %s",
	ErrorTitle:           "Error",
	ConnectFailedMessage: "Connection failed",
	AdapterTitle:         "Bluetooth",
	AdapterNotReady:      "Bluetooth is not ready (%s)",
	NoDevices:            "No devices discovered",
}

// GermanLabels is the German label set.
var GermanLabels = Labels{
	Title:                "Bluetooth Waage",
	SearchButton:         "Nach Geräten suchen",
	SearchingButton:      "Suche läuft...",
	UnknownDevice:        "Unbekanntes Gerät",
	IDPrefix:             "ID: ",
	ConnectedTitle:       "Verbunden",
	ConnectedMessage:     "Erfolgreich verbunden mit %s",
	ErrorTitle:           "Fehler",
	ConnectFailedMessage: "Verbindung fehlgeschlagen",
	AdapterTitle:         "Bluetooth",
	AdapterNotReady:      "Bluetooth ist nicht bereit (%s)",
	NoDevices:            "Keine Geräte gefunden",
}

// LabelsFor returns the label set for locale, defaulting to English.
func LabelsFor(locale string) Labels {
	switch strings.ToLower(locale) {
	case "de", "de_de", "de-de":
		return GermanLabels
	default:
		return EnglishLabels
	}
}

// ButtonLabel returns the scan button text for the given session state.
func (l Labels) ButtonLabel(scanning bool) string {
	if scanning {
		return l.SearchingButton
	}
	return l.SearchButton
}

// ListName returns the list caption for a device name, using the unknown
// device label for unnamed devices.
func (l Labels) ListName(name string) string {
	if name == "" {
		return l.UnknownDevice
	}
	return name
}

// ListID returns the identifier caption shown under the name.
func (l Labels) ListID(id string) string {
	return l.IDPrefix + id
}

// Connected returns the success message for a device name or identifier.
func (l Labels) Connected(displayName string) string {
	return fmt.Sprintf(l.ConnectedMessage, displayName)
}
