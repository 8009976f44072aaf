package inapp

// DeviceIdentity supplies the key material for the stock cipher: a
// stable-ish pseudo identifier and a device-specific salt. Both are
// derivable from public device properties, which is why the ciphered
// stock is an obfuscation measure and not a security boundary.
type DeviceIdentity interface {
	PseudoID() string
	Salt() []byte
}

// StaticDeviceIdentity is a DeviceIdentity backed by fixed values.
type StaticDeviceIdentity struct {
	ID         string
	DeviceSalt []byte
}

func (d *StaticDeviceIdentity) PseudoID() string {
	return d.ID
}

func (d *StaticDeviceIdentity) Salt() []byte {
	return d.DeviceSalt
}

func defaultDeviceIdentity() DeviceIdentity {
	return &StaticDeviceIdentity{
		ID:         "goinapp-device",
		DeviceSalt: []byte("goinapp"),
	}
}
