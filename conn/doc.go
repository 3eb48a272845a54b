// Package conn implements raw access to Linux spidev devices.
//
// It is only available on Linux; the display package falls back to bit-banged GPIO elsewhere.
package conn
