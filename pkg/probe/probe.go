// Package probe finds debug probes attached over USB.
package probe

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/google/gousb"
)

// Kind categorizes probe families.
type Kind string

const (
	KindSTLink   Kind = "st-link"
	KindCMSISDAP Kind = "cmsis-dap"
	KindJLink    Kind = "j-link"
)

// Info describes a detected probe.
type Info struct {
	Kind        Kind
	Description string
	VendorID    uint16
	ProductID   uint16
	Bus         int
	Address     int
	// OpenOCDInterface is the interface script used to drive the probe.
	OpenOCDInterface string
}

// Label returns a user-friendly description for the probe.
func (i Info) Label() string {
	if i.Description != "" {
		return fmt.Sprintf("%s (%04X:%04X)", i.Description, i.VendorID, i.ProductID)
	}
	return fmt.Sprintf("%s (%04X:%04X)", string(i.Kind), i.VendorID, i.ProductID)
}

// Location returns "bus:address", empty when unknown.
func (i Info) Location() string {
	if i.Bus == 0 && i.Address == 0 {
		return ""
	}
	return fmt.Sprintf("%03d:%03d", i.Bus, i.Address)
}

type knownDevice struct {
	VendorID    uint16
	ProductID   uint16
	Kind        Kind
	Description string
	Interface   string
}

const (
	vendorST      = 0x0483
	vendorSEGGER  = 0x1366
	vendorRPi     = 0x2e8a
	vendorARMMbed = 0x0d28
)

var knownDevices = []knownDevice{
	{vendorST, 0x3744, KindSTLink, "ST-Link V1", "stlink.cfg"},
	{vendorST, 0x3748, KindSTLink, "ST-Link V2", "stlink.cfg"},
	{vendorST, 0x374a, KindSTLink, "ST-Link V2-1", "stlink.cfg"},
	{vendorST, 0x374b, KindSTLink, "ST-Link V2-1", "stlink.cfg"},
	{vendorST, 0x3752, KindSTLink, "ST-Link V2-1", "stlink.cfg"},
	{vendorST, 0x374e, KindSTLink, "ST-Link V3", "stlink.cfg"},
	{vendorST, 0x374f, KindSTLink, "ST-Link V3", "stlink.cfg"},
	{vendorST, 0x3753, KindSTLink, "ST-Link V3", "stlink.cfg"},
	{vendorST, 0x3757, KindSTLink, "ST-Link V3PWR", "stlink.cfg"},
	{vendorRPi, 0x000c, KindCMSISDAP, "Raspberry Pi Debug Probe", "cmsis-dap.cfg"},
	{vendorARMMbed, 0x0204, KindCMSISDAP, "DAPLink", "cmsis-dap.cfg"},
	{vendorSEGGER, 0x0101, KindJLink, "SEGGER J-Link", "jlink.cfg"},
	{vendorSEGGER, 0x0105, KindJLink, "SEGGER J-Link", "jlink.cfg"},
	{vendorSEGGER, 0x1015, KindJLink, "SEGGER J-Link OB", "jlink.cfg"},
}

// Classify matches a USB vendor/product pair against the known probes.
// Unlisted SEGGER products are still reported as J-Link.
func Classify(vid, pid uint16) (Info, bool) {
	for _, k := range knownDevices {
		if k.VendorID == vid && k.ProductID == pid {
			return Info{
				Kind:             k.Kind,
				Description:      k.Description,
				VendorID:         vid,
				ProductID:        pid,
				OpenOCDInterface: k.Interface,
			}, true
		}
	}
	if vid == vendorSEGGER {
		return Info{Kind: KindJLink, Description: "SEGGER J-Link", VendorID: vid, ProductID: pid, OpenOCDInterface: "jlink.cfg"}, true
	}
	return Info{}, false
}

// Discover enumerates connected USB devices and returns the recognised
// probes. Devices the process may not open are still classified from their
// descriptors.
func Discover(ctx context.Context) ([]Info, error) {
	var results []Info
	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if info, ok := Classify(uint16(desc.Vendor), uint16(desc.Product)); ok {
			info.Bus = desc.Bus
			info.Address = desc.Address
			results = append(results, info)
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}
	if err == gousb.ErrorAccess {
		glog.V(1).Infof("probe: some USB devices were not accessible")
	}
	return results, ctx.Err()
}
