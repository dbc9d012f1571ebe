// Package network enumerates host network interfaces so an operator can
// pick the LAN the pixel UDP stream (internal/output) should target.
package network

import (
	"fmt"
	"net"
	"strings"
)

// InterfaceOption represents a candidate broadcast/unicast target for the
// pixel output emitter.
type InterfaceOption struct {
	Name          string
	Address       string
	Broadcast     string
	Description   string
	InterfaceType string // "ethernet", "wifi", "other", "localhost", "global"
}

// GetInterfaceType classifies an interface by its name. Go has no portable
// way to ask the OS for link-layer media type, so this is naming-convention
// based.
func GetInterfaceType(ifaceName string) string {
	name := strings.ToLower(ifaceName)

	// en0 is typically WiFi on macOS
	if name == "en0" {
		return "wifi"
	}

	if strings.HasPrefix(name, "eth") ||
		strings.HasPrefix(name, "en") ||
		strings.HasPrefix(name, "enp") ||
		strings.HasPrefix(name, "eno") {
		return "ethernet"
	}

	if strings.HasPrefix(name, "wlan") ||
		strings.HasPrefix(name, "wl") ||
		strings.Contains(name, "wifi") ||
		strings.Contains(name, "wireless") {
		return "wifi"
	}

	return "other"
}

// getTypeIcon returns an emoji for the interface type
func getTypeIcon(interfaceType string) string {
	switch interfaceType {
	case "wifi":
		return "📶"
	case "ethernet":
		return "🌐"
	case "other":
		return "📡"
	case "localhost":
		return "🏠"
	case "global":
		return "🌍"
	default:
		return "📡"
	}
}

// capitalize returns the string with the first letter capitalized.
func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// calculateBroadcast computes the broadcast address from IP and netmask
func calculateBroadcast(ip net.IP, mask net.IPMask) net.IP {
	if ip == nil || mask == nil {
		return nil
	}

	ip4 := ip.To4()
	if ip4 == nil {
		return nil
	}

	if len(mask) == 16 {
		mask = mask[12:16]
	}
	if len(mask) != 4 {
		return nil
	}

	broadcast := make(net.IP, 4)
	for i := 0; i < 4; i++ {
		broadcast[i] = ip4[i] | ^mask[i]
	}

	return broadcast
}

// GetNetworkInterfaces returns all available network interfaces for pixel
// frame broadcast, sorted ethernet, wifi, other, then localhost and global
// broadcast as trailing convenience options.
func GetNetworkInterfaces() ([]InterfaceOption, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to get network interfaces: %w", err)
	}

	var ethernetOptions []InterfaceOption
	var wifiOptions []InterfaceOption
	var otherOptions []InterfaceOption

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}

			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}

			broadcast := calculateBroadcast(ip4, ipNet.Mask)
			if broadcast == nil {
				continue
			}

			broadcastStr := broadcast.String()
			if broadcastStr == ip4.String() {
				continue
			}

			interfaceType := GetInterfaceType(iface.Name)
			typeIcon := getTypeIcon(interfaceType)

			option := InterfaceOption{
				Name:          fmt.Sprintf("%s-broadcast", iface.Name),
				Address:       ip4.String(),
				Broadcast:     broadcastStr,
				Description:   fmt.Sprintf("%s %s - %s Broadcast (%s)", typeIcon, iface.Name, capitalize(interfaceType), broadcastStr),
				InterfaceType: interfaceType,
			}

			switch interfaceType {
			case "ethernet":
				ethernetOptions = append(ethernetOptions, option)
			case "wifi":
				wifiOptions = append(wifiOptions, option)
			default:
				otherOptions = append(otherOptions, option)
			}
		}
	}

	options := make([]InterfaceOption, 0, len(ethernetOptions)+len(wifiOptions)+len(otherOptions)+2)
	options = append(options, ethernetOptions...)
	options = append(options, wifiOptions...)
	options = append(options, otherOptions...)

	options = append(options, InterfaceOption{
		Name:          "localhost",
		Address:       "127.0.0.1",
		Broadcast:     "127.0.0.1",
		Description:   fmt.Sprintf("%s Localhost (for testing only)", getTypeIcon("localhost")),
		InterfaceType: "localhost",
	})

	options = append(options, InterfaceOption{
		Name:          "global-broadcast",
		Address:       "0.0.0.0",
		Broadcast:     "255.255.255.255",
		Description:   fmt.Sprintf("%s Global Broadcast (255.255.255.255)", getTypeIcon("global")),
		InterfaceType: "global",
	})

	return options, nil
}
