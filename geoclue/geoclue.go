// Package geoclue watches the system location through the GeoClue2 D-Bus
// service.
package geoclue

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	service       = "org.freedesktop.GeoClue2"
	managerPath   = "/org/freedesktop/GeoClue2/Manager"
	managerIface  = "org.freedesktop.GeoClue2.Manager"
	clientIface   = "org.freedesktop.GeoClue2.Client"
	locationIface = "org.freedesktop.GeoClue2.Location"
)

const (
	// accuracyCity requests city-level accuracy, which is plenty for solar
	// position.
	accuracyCity = uint32(4)

	// distanceThreshold is how far (in meters) the location must move before
	// GeoClue sends another update.
	distanceThreshold = uint32(10000)
)

// Coordinates is a geographic position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Watch starts a GeoClue client for the given desktop id and subscribes to
// its location updates. Updates are delivered on the first channel; a read
// from the second channel means the watch is broken and no further updates
// will arrive.
func Watch(desktopID string) (<-chan Coordinates, <-chan error, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, nil, err
	}

	manager := conn.Object(service, managerPath)
	var clientPath dbus.ObjectPath
	if err := manager.Call(managerIface+".GetClient", 0).Store(&clientPath); err != nil {
		return nil, nil, fmt.Errorf("get geoclue client: %w", err)
	}

	client := conn.Object(service, clientPath)
	if err := client.SetProperty(clientIface+".DesktopId", dbus.MakeVariant(desktopID)); err != nil {
		return nil, nil, fmt.Errorf("set desktop id: %w", err)
	}
	if err := client.SetProperty(clientIface+".DistanceThreshold", dbus.MakeVariant(distanceThreshold)); err != nil {
		return nil, nil, fmt.Errorf("set distance threshold: %w", err)
	}
	if err := client.SetProperty(clientIface+".RequestedAccuracyLevel", dbus.MakeVariant(accuracyCity)); err != nil {
		return nil, nil, fmt.Errorf("set accuracy level: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(clientPath),
		dbus.WithMatchInterface(clientIface),
		dbus.WithMatchMember("LocationUpdated"),
	); err != nil {
		return nil, nil, err
	}
	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)

	if err := client.Call(clientIface+".Start", 0).Err; err != nil {
		return nil, nil, fmt.Errorf("start geoclue client: %w", err)
	}

	updates := make(chan Coordinates)
	errs := make(chan error, 1)
	go func() {
		for sig := range signals {
			if sig.Name != clientIface+".LocationUpdated" || len(sig.Body) != 2 {
				continue
			}
			path, ok := sig.Body[1].(dbus.ObjectPath)
			if !ok {
				errs <- fmt.Errorf("malformed LocationUpdated signal body %v", sig.Body)
				return
			}
			location := conn.Object(service, path)
			var c Coordinates
			if err := location.StoreProperty(locationIface+".Latitude", &c.Latitude); err != nil {
				errs <- fmt.Errorf("read latitude: %w", err)
				return
			}
			if err := location.StoreProperty(locationIface+".Longitude", &c.Longitude); err != nil {
				errs <- fmt.Errorf("read longitude: %w", err)
				return
			}
			updates <- c
		}
		errs <- fmt.Errorf("geoclue signal stream closed")
	}()
	return updates, errs, nil
}
