package crawler

// Device is one fixed fingerprint profile a worker presents to origin
// servers, so traffic from a multi-worker scan isn't mono-fingerprinted.
type Device struct {
	ID             string
	Name           string
	UserAgent      string
	AcceptLanguage string
}

// devices is the fixed 5-entry catalogue. Workers are assigned devices
// by round-robin of worker index.
var devices = []Device{
	{
		ID:             "desktop-chrome-windows",
		Name:           "Desktop Chrome (Windows)",
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		AcceptLanguage: "en-US,en;q=0.9",
	},
	{
		ID:             "macbook-safari",
		Name:           "MacBook Safari",
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		AcceptLanguage: "en-US,en;q=0.9",
	},
	{
		ID:             "firefox-windows",
		Name:           "Firefox (Windows)",
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
		AcceptLanguage: "en-US,en;q=0.5",
	},
	{
		ID:             "iphone-safari",
		Name:           "iPhone Safari",
		UserAgent:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
		AcceptLanguage: "en-US,en;q=0.9",
	},
	{
		ID:             "android-chrome",
		Name:           "Android Chrome",
		UserAgent:      "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36",
		AcceptLanguage: "en-US,en;q=0.9",
	},
}

// DeviceForWorker returns the device assigned to a worker by round robin
// of worker index over the fixed catalogue.
func DeviceForWorker(workerID int) Device {
	return devices[workerID%len(devices)]
}

// Devices returns a copy of the device catalogue, for the status endpoint.
func Devices() []Device {
	out := make([]Device, len(devices))
	copy(out, devices)
	return out
}
